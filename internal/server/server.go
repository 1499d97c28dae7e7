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

// Package server wraps the HTTP server fronting the gateway, wiring the
// middleware chain and exposing health and readiness probes.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/deep-rent/warden/internal/config"
	"github.com/deep-rent/warden/internal/middleware"
)

// Built-in defaults for omitted server timeouts.
const (
	DefaultReadTimeout       = 30 * time.Second
	DefaultReadHeaderTimeout = 10 * time.Second
	DefaultIdleTimeout       = 90 * time.Second
	DefaultMaxHeaderBytes    = 1 << 16 // 64 KiB
)

// Server runs the gateway's HTTP endpoint.
type Server struct {
	srv *http.Server
	mux *http.ServeMux
}

// New constructs a Server around the upstream handler. Middlewares are
// applied outermost-first around it; the probe endpoints stay outside the
// chain so they remain reachable without credentials.
func New(
	upstream http.Handler,
	target *url.URL,
	healthPath string,
	mws ...middleware.Middleware,
) *Server {
	mux := http.NewServeMux()
	p := newProbe(target, healthPath)

	// Unprotected readiness and liveness probes.
	mux.HandleFunc("GET /ready", p.ready)
	mux.HandleFunc("HEAD /ready", p.ready)
	mux.HandleFunc("GET /healthy", p.healthy)
	mux.HandleFunc("HEAD /healthy", p.healthy)

	// Everything else runs through the middleware chain to the upstream.
	mux.Handle("/", middleware.Chain(upstream, mws...))

	return &Server{mux: mux}
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.mux }

// Start runs the HTTP server per the given configuration and blocks until
// the server stops. It returns nil on graceful shutdown, or the terminal
// error otherwise.
func (s *Server) Start(cfg config.Server) error {
	s.srv = &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:           s.mux,
		ReadTimeout:       seconds(cfg.ReadTimeout, DefaultReadTimeout),
		ReadHeaderTimeout: seconds(cfg.ReadHeaderTimeout, DefaultReadHeaderTimeout),
		WriteTimeout:      0, // Allow streaming responses
		IdleTimeout:       seconds(cfg.IdleTimeout, DefaultIdleTimeout),
		MaxHeaderBytes:    max(cfg.MaxHeaderBytes, DefaultMaxHeaderBytes),
	}

	err := s.srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown attempts a graceful server shutdown within ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// seconds converts a configured timeout to a duration, substituting the
// default for non-positive values.
func seconds(n int, def time.Duration) time.Duration {
	if n <= 0 {
		return def
	}
	return time.Duration(n) * time.Second
}
