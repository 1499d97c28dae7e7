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

// Package token turns bearer tokens on incoming requests into authz
// subjects. Requests without credentials resolve to an anonymous subject;
// requests with invalid credentials fail with an AuthenticationError the
// middleware maps to 401.
package token

import (
	"fmt"
	"net/http"
	"time"

	"github.com/deep-rent/nexus/header"
	"github.com/deep-rent/warden/authz"
	"github.com/deep-rent/warden/internal/config"
	"github.com/lestrrat-go/jwx/v3/jwt"
)

// Scheme is the authorization scheme expected on incoming requests.
const Scheme = "Bearer"

// AuthenticationError reports a request that presented credentials which
// could not be verified. Challenge is the WWW-Authenticate value to send
// with the 401 response.
type AuthenticationError struct {
	Challenge string
	Err       error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed: %v", e.Err)
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// Resolver verifies bearer tokens and maps their claims to subjects. It
// is safe for concurrent use; verification state lives in the KeySource.
type Resolver struct {
	keys             KeySource
	opts             []jwt.ParseOption
	authoritiesClaim string
	rememberMeClaim  string
}

// NewResolver creates a Resolver from configuration. The key source may
// be nil, in which case every request carrying a token fails verification;
// deployments without protected rules never reach that path.
func NewResolver(keys KeySource, cfg config.Token) *Resolver {
	opts := []jwt.ParseOption{jwt.WithValidate(true)}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	if cfg.Leeway > 0 {
		opts = append(opts, jwt.WithAcceptableSkew(
			time.Duration(cfg.Leeway)*time.Second,
		))
	}
	return &Resolver{
		keys:             keys,
		opts:             opts,
		authoritiesClaim: cfg.AuthoritiesClaim,
		rememberMeClaim:  cfg.RememberMeClaim,
	}
}

// Resolve extracts the security subject of the request. A missing token
// yields an anonymous subject, not an error.
func (r *Resolver) Resolve(req *http.Request) (authz.Subject, error) {
	raw := header.Credentials(req.Header, Scheme)
	if raw == "" {
		return authz.Subject{Anonymous: true}, nil
	}
	if r.keys == nil {
		return authz.Subject{}, r.reject(fmt.Errorf("no key source configured"))
	}
	set, err := r.keys.Keys(req.Context())
	if err != nil {
		return authz.Subject{}, fmt.Errorf("load keys: %w", err)
	}
	opts := make([]jwt.ParseOption, 0, len(r.opts)+1)
	opts = append(opts, r.opts...)
	opts = append(opts, jwt.WithKeySet(set))
	tok, err := jwt.Parse([]byte(raw), opts...)
	if err != nil {
		return authz.Subject{}, r.reject(err)
	}
	return r.subject(tok)
}

// reject wraps a verification failure into an AuthenticationError.
func (r *Resolver) reject(err error) error {
	return &AuthenticationError{
		Challenge: Scheme + ` error="invalid_token"`,
		Err:       err,
	}
}

// subject maps verified token claims to an authz.Subject.
func (r *Resolver) subject(tok jwt.Token) (authz.Subject, error) {
	var sub string
	if err := tok.Get("sub", &sub); err != nil || sub == "" {
		return authz.Subject{}, r.reject(
			fmt.Errorf("token has no subject claim"),
		)
	}
	out := authz.Subject{Principal: sub}
	var claim any
	if err := tok.Get(r.authoritiesClaim, &claim); err == nil {
		out.Authorities = authorities(claim)
	}
	var remembered bool
	if err := tok.Get(r.rememberMeClaim, &remembered); err == nil {
		out.RememberMe = remembered
	}
	return out, nil
}

// authorities normalizes an authorities claim value. Both a string list
// and a single string are accepted; anything else yields no authorities.
func authorities(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return []string{t}
	default:
		return nil
	}
}
