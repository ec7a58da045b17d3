// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package internal holds helpers shared by the app runners.
package internal

import (
	"context"
	"fmt"

	"github.com/z5labs/bedrock"
	"github.com/z5labs/bedrock/config"
)

// Run builds the app from cfg and runs it until ctx is done or the app
// fails.
func Run(ctx context.Context, cfg config.Source, builder bedrock.AppBuilder[config.Source]) error {
	app, err := builder.Build(ctx, cfg)
	if err != nil {
		return fmt.Errorf("building app: %w", err)
	}
	return app.Run(ctx)
}
