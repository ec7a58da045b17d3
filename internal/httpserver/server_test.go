// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package httpserver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type acceptFunc func() (net.Conn, error)

func (f acceptFunc) Accept() (net.Conn, error) {
	return f()
}

func (acceptFunc) Close() error {
	return nil
}

func (acceptFunc) Addr() net.Addr {
	return nil
}

func serveAsync(ctx context.Context, a *App) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		errCh <- a.Run(ctx)
	}()
	return errCh
}

func TestApp_Run(t *testing.T) {
	t.Run("will return an error", func(t *testing.T) {
		t.Run("if the listener fails to accept a connection", func(t *testing.T) {
			acceptErr := errors.New("failed to accept conn")
			ls := acceptFunc(func() (net.Conn, error) {
				return nil, acceptErr
			})

			a := NewApp(ls, http.NotFoundHandler())

			err := a.Run(context.Background())
			require.ErrorIs(t, err, acceptErr)
		})

		t.Run("if in-flight requests outlive the shutdown timeout", func(t *testing.T) {
			ls, err := net.Listen("tcp", "127.0.0.1:0")
			require.NoError(t, err)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			started := make(chan struct{})
			release := make(chan struct{})
			defer close(release)

			h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				close(started)
				<-release
			})
			a := NewApp(ls, h, ShutdownTimeout(10*time.Millisecond))
			errCh := serveAsync(ctx, a)

			go func() {
				resp, err := http.Get(fmt.Sprintf("http://%s/", ls.Addr()))
				if err == nil {
					resp.Body.Close()
				}
			}()
			<-started
			cancel()

			require.ErrorIs(t, <-errCh, context.DeadlineExceeded)
		})
	})

	t.Run("will not return an error", func(t *testing.T) {
		t.Run("if the context is cancelled before running", func(t *testing.T) {
			ls, err := net.Listen("tcp", "127.0.0.1:0")
			require.NoError(t, err)

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			a := NewApp(ls, http.NotFoundHandler())

			require.NoError(t, a.Run(ctx))
		})

		t.Run("if the context is cancelled while serving", func(t *testing.T) {
			ls, err := net.Listen("tcp", "127.0.0.1:0")
			require.NoError(t, err)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				defer cancel()

				w.WriteHeader(http.StatusOK)
			})
			a := NewApp(ls, h, ReadHeaderTimeout(time.Second))
			errCh := serveAsync(ctx, a)

			resp, err := http.Get(fmt.Sprintf("http://%s/", ls.Addr()))
			require.NoError(t, err)
			resp.Body.Close()
			require.Equal(t, http.StatusOK, resp.StatusCode)

			require.NoError(t, <-errCh)
		})
	})
}

func TestErrorLog(t *testing.T) {
	t.Run("will log server errors to the handler", func(t *testing.T) {
		var buf bytes.Buffer
		a := NewApp(nil, http.NotFoundHandler(), ErrorLog(slog.NewTextHandler(&buf, nil)))

		a.server.ErrorLog.Print("tls handshake error")

		require.Contains(t, buf.String(), "level=ERROR")
		require.Contains(t, buf.String(), "tls handshake error")
	})
}
