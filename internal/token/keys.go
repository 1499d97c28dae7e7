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

package token

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/deep-rent/warden/internal/config"
	"github.com/lestrrat-go/httprc/v3"
	"github.com/lestrrat-go/jwx/v3/jwk"
)

// KeySource supplies the JSON Web Key Set used to verify access token
// signatures. Implementations may load keys from disk, poll a remote
// endpoint, or merge several sources.
type KeySource interface {
	// Keys returns the current JWK set, refreshing it as needed.
	Keys(ctx context.Context) (jwk.Set, error)
}

// static serves a JWKS document parsed from disk at startup.
type static struct {
	set jwk.Set
}

func (s *static) Keys(context.Context) (jwk.Set, error) {
	return s.set, nil
}

// newStatic loads and parses the JWKS file at path eagerly, so a broken
// key file aborts startup.
func newStatic(path string) (KeySource, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read jwks %q: %w", path, err)
	}
	set, err := jwk.Parse(buf)
	if err != nil {
		return nil, fmt.Errorf("parse jwks %q: %w", path, err)
	}
	return &static{set: set}, nil
}

// remote polls a JWKS endpoint in the background through jwk.Cache, which
// handles refresh scheduling and rate limiting.
type remote struct {
	cache *jwk.Cache
	url   string
}

func (r *remote) Keys(ctx context.Context) (jwk.Set, error) {
	return r.cache.Lookup(ctx, r.url)
}

// newRemote registers the endpoint with a fresh jwk.Cache. The initial
// registration fetch runs under a short timeout so a permanently failing
// endpoint does not block startup indefinitely.
func newRemote(
	ctx context.Context,
	endpoint string,
	minInterval time.Duration,
) (KeySource, error) {
	client := httprc.NewClient(httprc.WithHTTPClient(&http.Client{
		Timeout: 30 * time.Second,
	}))
	cache, err := jwk.NewCache(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("create key cache: %w", err)
	}
	wt, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := cache.Register(
		wt,
		endpoint,
		jwk.WithMinInterval(minInterval),
	); err != nil {
		return nil, fmt.Errorf("register jwks endpoint: %w", err)
	}
	return &remote{cache: cache, url: endpoint}, nil
}

// merged aggregates the keys of multiple sources into one set.
type merged struct {
	sources []KeySource
}

func (m *merged) Keys(ctx context.Context) (jwk.Set, error) {
	agg := jwk.NewSet()
	for _, src := range m.sources {
		set, err := src.Keys(ctx)
		if err != nil {
			return nil, err
		}
		for i := range set.Len() {
			if key, ok := set.Key(i); ok {
				if err := agg.AddKey(key); err != nil {
					return nil, fmt.Errorf("merge key: %w", err)
				}
			}
		}
	}
	return agg, nil
}

// NewKeySource builds a KeySource from configuration. A static file, a
// remote endpoint, or both (merged) may be configured; neither is an
// error here so that deployments without protected rules need no keys.
// The returned source is nil when no key location is configured.
func NewKeySource(ctx context.Context, cfg config.Keys) (KeySource, error) {
	var sources []KeySource
	if cfg.File != "" {
		s, err := newStatic(cfg.File)
		if err != nil {
			return nil, err
		}
		sources = append(sources, s)
	}
	if cfg.URL != "" {
		r, err := newRemote(
			ctx,
			cfg.URL,
			time.Duration(cfg.MinInterval)*time.Second,
		)
		if err != nil {
			return nil, err
		}
		sources = append(sources, r)
	}
	switch len(sources) {
	case 0:
		return nil, nil
	case 1:
		return sources[0], nil
	default:
		return &merged{sources: sources}, nil
	}
}
