// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package rest

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"syscall"

	"github.com/z5labs/apio"
	"github.com/z5labs/apio/config"
	"github.com/z5labs/apio/internal"
	"github.com/z5labs/apio/internal/httpserver"
	"github.com/z5labs/apio/writer"

	"github.com/z5labs/bedrock"
	"github.com/z5labs/bedrock/app"
	"github.com/z5labs/bedrock/appbuilder"
	bedrockcfg "github.com/z5labs/bedrock/config"
	"github.com/z5labs/bedrock/lifecycle"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/text/language"
)

//go:embed default_config.yaml
var defaultConfig []byte

// DefaultConfig returns the source of the defaults for [Config].
func DefaultConfig() bedrockcfg.Source {
	return apio.ConfigSource(bytes.NewReader(defaultConfig))
}

// Configer is leveraged to constrain the custom config type into
// supporting specific initialization behaviour required by [Run].
type Configer interface {
	appbuilder.OTelInitializer

	Listener(context.Context) (net.Listener, error)
	HTTPConfig() config.HTTP
}

// Config is the default config which can be easily embedded into a
// more custom app specific config.
type Config struct {
	apio.Config `config:",squash"`

	OpenAPI     config.OpenAPI     `config:"openapi"`
	HTTP        config.HTTP        `config:"http"`
	Server      config.Server      `config:"server"`
	Pagination  config.Pagination  `config:"pagination"`
	Negotiation config.Negotiation `config:"negotiation"`
	Locale      config.Locale      `config:"locale"`
}

// Listener implements the [Configer] interface.
func (c Config) Listener(ctx context.Context) (net.Listener, error) {
	return net.Listen("tcp", fmt.Sprintf(":%d", c.HTTP.Port))
}

// HTTPConfig implements the [Configer] interface.
func (c Config) HTTPConfig() config.HTTP {
	return c.HTTP
}

// ApiOptions translates the config into [ApiOption]s for [NewApi].
func (c Config) ApiOptions() ([]ApiOption, error) {
	localizer, err := c.localizer()
	if err != nil {
		return nil, err
	}

	opts := []ApiOption{
		Pagination(c.Pagination),
		Negotiation(c.Negotiation),
		Locale(localizer),
		MaxBodyBytes(c.HTTP.MaxBodyBytes),
	}
	if c.Server.URL != "" {
		opts = append(opts, ServerURL(c.Server.URL))
	}
	return opts, nil
}

func (c Config) localizer() (*writer.Localizer, error) {
	fallback := language.English
	if c.Locale.Default != "" {
		tag, err := language.Parse(c.Locale.Default)
		if err != nil {
			return nil, fmt.Errorf("parsing default locale: %w", err)
		}
		fallback = tag
	}

	supported := make([]language.Tag, 0, len(c.Locale.Supported))
	for _, s := range c.Locale.Supported {
		tag, err := language.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("parsing supported locale: %w", err)
		}
		supported = append(supported, tag)
	}
	return writer.NewLocalizer(fallback, supported...), nil
}

// Run begins by reading, parsing and unmarshaling your custom config into
// the type T. Then it calls the providing function to initialize your [Api]
// implementation. Once it has the [Api] implementation, it begins serving
// the [Api] over HTTP. Various middlewares are applied at different stages
// for your convenience. Some middlewares include, automatic panic recovery,
// OTel SDK initialization and shutdown, and OS signal based shutdown.
func Run[T Configer](r io.Reader, f func(context.Context, T) (*Api, error)) {
	cfg := bedrockcfg.MultiSource(
		apio.DefaultConfig(),
		DefaultConfig(),
		apio.ConfigSource(r),
	)

	builder := appbuilder.FromConfig(
		appbuilder.LifecycleContext(
			appbuilder.OTel(
				appbuilder.Recover(
					bedrock.AppBuilderFunc[T](func(ctx context.Context, cfg T) (bedrock.App, error) {
						api, err := f(ctx, cfg)
						if err != nil {
							return nil, err
						}

						ls, err := cfg.Listener(ctx)
						if err != nil {
							return nil, err
						}

						log := apio.Logger("github.com/z5labs/apio/rest")
						lc, _ := lifecycle.FromContext(ctx)
						lc.OnPostRun(lifecycle.HookFunc(func(ctx context.Context) error {
							log.InfoContext(ctx, "stopped serving", slog.String("addr", ls.Addr().String()))
							return nil
						}))

						h := otelhttp.NewHandler(
							api,
							"rest",
							otelhttp.WithMessageEvents(otelhttp.ReadEvents, otelhttp.WriteEvents),
						)

						var base bedrock.App = httpserver.NewApp(
							ls,
							h,
							httpserver.ErrorLog(apio.LogHandler("github.com/z5labs/apio/rest")),
							httpserver.ReadHeaderTimeout(cfg.HTTPConfig().ReadHeaderTimeout),
							httpserver.ShutdownTimeout(cfg.HTTPConfig().ShutdownTimeout),
						)
						base = app.Recover(base)
						base = app.InterruptOn(base, os.Kill, os.Interrupt, syscall.SIGTERM)
						return base, nil
					}),
				),
			),
			&lifecycle.Context{},
		),
	)

	err := internal.Run(context.Background(), cfg, builder)
	if err == nil {
		return
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{}))
	log.Error("failed to run rest app", slog.String("error", err.Error()))
}
