// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package apio

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	bedrockcfg "github.com/z5labs/bedrock/config"
)

func TestConfig_InitializeOTel(t *testing.T) {
	t.Run("will not return an error", func(t *testing.T) {
		t.Run("with the default parameters", func(t *testing.T) {
			m, err := bedrockcfg.Read(DefaultConfig())
			require.Nil(t, err)

			var cfg Config
			err = m.Unmarshal(&cfg)
			require.Nil(t, err)

			err = cfg.InitializeOTel(context.Background())
			require.Nil(t, err)
		})
	})
}

func TestConfigSource(t *testing.T) {
	t.Run("will render env values", func(t *testing.T) {
		t.Run("if the variable is set", func(t *testing.T) {
			t.Setenv("APIO_TEST_SERVICE_NAME", "people")

			src := ConfigSource(strings.NewReader(`name: {{env "APIO_TEST_SERVICE_NAME" | default "fallback"}}`))
			m, err := bedrockcfg.Read(src)
			require.Nil(t, err)

			var cfg struct {
				Name string `config:"name"`
			}
			err = m.Unmarshal(&cfg)
			require.Nil(t, err)
			require.Equal(t, "people", cfg.Name)
		})
	})

	t.Run("will render the default", func(t *testing.T) {
		t.Run("if the variable is not set", func(t *testing.T) {
			src := ConfigSource(strings.NewReader(`name: {{env "APIO_TEST_UNSET_VARIABLE" | default "fallback"}}`))
			m, err := bedrockcfg.Read(src)
			require.Nil(t, err)

			var cfg struct {
				Name string `config:"name"`
			}
			err = m.Unmarshal(&cfg)
			require.Nil(t, err)
			require.Equal(t, "fallback", cfg.Name)
		})
	})
}
