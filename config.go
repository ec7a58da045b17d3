// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package apio

import (
	"bytes"
	"context"
	_ "embed"
	"io"
	"os"

	"github.com/z5labs/apio/config"
	"github.com/z5labs/apio/internal/otel"

	bedrockcfg "github.com/z5labs/bedrock/config"
)

// ConfigSource reads YAML from r after rendering it as a Go text template.
// Two template functions are available:
//   - env returns the value of an environment variable, or nil if unset
//   - default returns its first argument when the piped value is nil
//
// Example:
//
//	http:
//	  port: {{env "HTTP_PORT" | default 8080}}
func ConfigSource(r io.Reader) bedrockcfg.Source {
	return bedrockcfg.FromYaml(
		bedrockcfg.RenderTextTemplate(
			r,
			bedrockcfg.TemplateFunc("env", func(key string) any {
				v, ok := os.LookupEnv(key)
				if ok {
					return v
				}
				return nil
			}),
			bedrockcfg.TemplateFunc("default", func(def, v any) any {
				if v == nil {
					return def
				}
				return v
			}),
		),
	)
}

//go:embed default_config.yaml
var defaultConfig []byte

// DefaultConfig returns the source of the defaults for [Config].
func DefaultConfig() bedrockcfg.Source {
	return ConfigSource(bytes.NewReader(defaultConfig))
}

// Config is embedded by the config of every apio application.
type Config struct {
	OTel config.OTel `config:"otel"`
}

// InitializeOTel sets the global OpenTelemetry providers.
func (cfg Config) InitializeOTel(ctx context.Context) error {
	return otel.Initialize(ctx, cfg.OTel)
}
