// Copyright (c) 2025-present deep.rent GmbH (https://www.deep.rent)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"time"

	"github.com/deep-rent/nexus/app"
	"github.com/deep-rent/warden/authz"
	"github.com/deep-rent/warden/internal/config"
	"github.com/deep-rent/warden/internal/logger"
	"github.com/deep-rent/warden/internal/middleware"
	"github.com/deep-rent/warden/internal/server"
	"github.com/deep-rent/warden/internal/token"
	"github.com/deep-rent/warden/internal/tunnel"
)

func main() {
	path := flag.String(
		"config",
		"./config.yaml",
		"Path to the YAML configuration file",
	)
	flag.Parse()

	cfg, err := config.Load(*path)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	runnable := func(ctx context.Context) error {
		srv, err := boot(ctx, log, cfg)
		if err != nil {
			return err
		}

		fail := make(chan error, 1)
		go func() { fail <- srv.Start(cfg.Server) }()

		select {
		case err := <-fail:
			return err
		case <-ctx.Done():
		}

		stop, cancel := context.WithTimeout(
			context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(stop)
	}

	if err := app.Run(runnable, app.WithLogger(log)); err != nil {
		log.Error("Application failed", "error", err)
		os.Exit(1)
	}
	log.Info("Exited gracefully")
}

// boot assembles the gateway from the configuration: the compiled rule
// table, the token resolver, the upstream proxy, and the server around
// them.
func boot(
	ctx context.Context,
	log *slog.Logger,
	cfg *config.Config,
) (*server.Server, error) {
	target, err := url.Parse(cfg.Upstream.URL)
	if err != nil {
		return nil, fmt.Errorf("parse upstream URL: %w", err)
	}

	reg, err := cfg.Registry()
	if err != nil {
		return nil, fmt.Errorf("assemble rules: %w", err)
	}
	eval := authz.NewEvaluator()
	src := authz.Build(reg.Compile(), eval)

	mws := []middleware.Middleware{
		middleware.Catch(log),
	}
	if src == nil {
		log.Warn("No authorization rules configured; all requests pass")
	} else {
		keys, err := token.NewKeySource(ctx, cfg.Token.Keys)
		if err != nil {
			return nil, fmt.Errorf("set up key source: %w", err)
		}
		resolver := token.NewResolver(keys, cfg.Token)
		mws = append(mws, middleware.Authorize(
			log,
			src,
			authz.NewVoter(eval),
			resolver.Resolve,
		))
	}

	pxy := tunnel.New(
		target,
		time.Duration(cfg.Upstream.FlushInterval)*time.Millisecond,
	)

	log.Info("Gateway configured",
		"upstream", target.String(),
		"rules", len(cfg.Rules),
	)
	return server.New(pxy, target, cfg.Upstream.HealthPath, mws...), nil
}
