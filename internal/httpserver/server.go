// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package httpserver runs an [http.Server] until its context is cancelled.
package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/sourcegraph/conc/pool"
)

type AppOptions struct {
	errorLogHandler   slog.Handler
	readHeaderTimeout time.Duration
	shutdownTimeout   time.Duration
}

type AppOption interface {
	ApplyAppOption(*AppOptions)
}

type appOptionFunc func(*AppOptions)

func (f appOptionFunc) ApplyAppOption(ao *AppOptions) {
	f(ao)
}

// ErrorLog sets the handler the server's internal errors are logged to.
func ErrorLog(h slog.Handler) AppOption {
	return appOptionFunc(func(ao *AppOptions) {
		ao.errorLogHandler = h
	})
}

// ReadHeaderTimeout bounds how long a client may take to send request
// headers. Zero or less means no limit.
func ReadHeaderTimeout(d time.Duration) AppOption {
	return appOptionFunc(func(ao *AppOptions) {
		ao.readHeaderTimeout = d
	})
}

// ShutdownTimeout bounds how long in-flight requests may take to complete
// once the server is stopping. Zero or less waits for them indefinitely.
func ShutdownTimeout(d time.Duration) AppOption {
	return appOptionFunc(func(ao *AppOptions) {
		ao.shutdownTimeout = d
	})
}

// App serves HTTP on a listener.
type App struct {
	ls              net.Listener
	server          *http.Server
	shutdownTimeout time.Duration
}

// NewApp initializes a [App].
func NewApp(ls net.Listener, h http.Handler, opts ...AppOption) *App {
	ao := &AppOptions{
		errorLogHandler: slog.DiscardHandler,
	}
	for _, opt := range opts {
		opt.ApplyAppOption(ao)
	}

	return &App{
		ls: ls,
		server: &http.Server{
			Handler:           h,
			ReadHeaderTimeout: ao.readHeaderTimeout,
			ErrorLog:          slog.NewLogLogger(ao.errorLogHandler, slog.LevelError),
		},
		shutdownTimeout: ao.shutdownTimeout,
	}
}

// Run serves until ctx is cancelled or serving fails, then shuts the
// server down gracefully.
func (a *App) Run(ctx context.Context) error {
	p := pool.New().WithErrors().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		err := a.server.Serve(a.ls)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	p.Go(func(ctx context.Context) error {
		<-ctx.Done()

		return a.shutdown(context.WithoutCancel(ctx))
	})
	return p.Wait()
}

func (a *App) shutdown(ctx context.Context) error {
	if a.shutdownTimeout <= 0 {
		return a.server.Shutdown(ctx)
	}

	ctx, cancel := context.WithTimeout(ctx, a.shutdownTimeout)
	defer cancel()

	err := a.server.Shutdown(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		return errors.Join(err, a.server.Close())
	}
	return err
}
