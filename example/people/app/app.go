// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package app

import (
	"context"
	"net/http"
	"time"

	"github.com/z5labs/apio/example/people/people"

	"github.com/z5labs/apio"
	"github.com/z5labs/apio/config"
	"github.com/z5labs/apio/health"
	"github.com/z5labs/apio/identifier"
	"github.com/z5labs/apio/objectstore"
	"github.com/z5labs/apio/registry"
	"github.com/z5labs/apio/rest"

	"github.com/z5labs/bedrock/lifecycle"
)

type Config struct {
	rest.Config `config:",squash"`

	People struct {
		Admin string `config:"admin"`
	} `config:"people"`

	Postgres    config.Postgres    `config:"postgres"`
	ObjectStore config.ObjectStore `config:"objectstore"`
}

// Init backs the API with PostgreSQL when a database URL is configured and
// serves avatars from the object store when a bucket is configured.
// Otherwise everything is kept in memory.
func Init(ctx context.Context, cfg Config) (*rest.Api, error) {
	var store people.Store = people.NewInMemory()
	var monitors []health.Monitor

	if cfg.Postgres.URL != "" {
		pg, err := people.OpenPostgres(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		onPostRun(ctx, func(context.Context) error {
			pg.Close()
			return nil
		})
		store = pg
		monitors = append(monitors, health.Timeout(health.Ping(pg), time.Second))
	}

	opts := []people.Option{
		people.Admin(cfg.People.Admin),
	}
	if cfg.ObjectStore.Bucket != "" {
		avatars, err := objectstore.New(cfg.ObjectStore)
		if err != nil {
			return nil, err
		}
		err = avatars.EnsureBucket(ctx)
		if err != nil {
			return nil, err
		}
		opts = append(opts, people.WithAvatars(objectstore.Binary(avatars, func(p people.Person) string {
			return p.AvatarKey
		})))
		monitors = append(monitors, health.Timeout(avatars, time.Second))
	}

	reg := registry.New(
		identifier.NewRegistry(),
		registry.Logger(apio.Logger("github.com/z5labs/apio/example/people")),
	)
	err := people.Register(reg, store, opts...)
	if err != nil {
		return nil, err
	}

	apiOpts, err := cfg.ApiOptions()
	if err != nil {
		return nil, err
	}
	apiOpts = append(
		apiOpts,
		rest.Credentials(callerOf),
		rest.Readiness(health.And(monitors...)),
	)
	return rest.NewApi(cfg.OpenAPI.Title, cfg.OpenAPI.Version, reg, apiOpts...)
}

// callerOf identifies the caller by the X-User header.
func callerOf(r *http.Request) (any, error) {
	return r.Header.Get("X-User"), nil
}

func onPostRun(ctx context.Context, f func(context.Context) error) {
	lc, ok := lifecycle.FromContext(ctx)
	if !ok {
		panic("lifecycle must be present in context")
	}
	lc.OnPostRun(lifecycle.HookFunc(f))
}
