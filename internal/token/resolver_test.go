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

package token_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/deep-rent/warden/internal/config"
	"github.com/deep-rent/warden/internal/token"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sourceFunc adapts a function to the KeySource interface.
type sourceFunc func(ctx context.Context) (jwk.Set, error)

func (f sourceFunc) Keys(ctx context.Context) (jwk.Set, error) {
	return f(ctx)
}

// newKey builds a symmetric signing key with kid and alg set so that
// verification through a key set resolves it.
func newKey(t *testing.T) jwk.Key {
	t.Helper()
	key, err := jwk.Import([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	require.NoError(t, key.Set(jwk.KeyIDKey, "k1"))
	require.NoError(t, key.Set(jwk.AlgorithmKey, jwa.HS256()))
	return key
}

// setOf wraps keys into a jwk.Set.
func setOf(t *testing.T, keys ...jwk.Key) jwk.Set {
	t.Helper()
	set := jwk.NewSet()
	for _, k := range keys {
		require.NoError(t, set.AddKey(k))
	}
	return set
}

// sign issues a token with the given extra claims.
func sign(t *testing.T, key jwk.Key, claims map[string]any) string {
	t.Helper()
	b := jwt.NewBuilder().
		Subject("alice").
		Issuer("https://idp.example.com").
		Expiration(time.Now().Add(time.Hour))
	for name, value := range claims {
		b = b.Claim(name, value)
	}
	tok, err := b.Build()
	require.NoError(t, err)
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256(), key))
	require.NoError(t, err)
	return string(signed)
}

func newResolver(key jwk.Key, t *testing.T) *token.Resolver {
	set := setOf(t, key)
	return token.NewResolver(
		sourceFunc(func(context.Context) (jwk.Set, error) {
			return set, nil
		}),
		config.Token{
			Issuer:           "https://idp.example.com",
			AuthoritiesClaim: "authorities",
			RememberMeClaim:  "remember_me",
		},
	)
}

func bearer(raw string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	return req
}

func TestResolveAnonymous(t *testing.T) {
	r := newResolver(newKey(t), t)

	sub, err := r.Resolve(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.True(t, sub.Anonymous)
	assert.False(t, sub.Authenticated())
	assert.Empty(t, sub.Principal)
}

func TestResolveValidToken(t *testing.T) {
	key := newKey(t)
	r := newResolver(key, t)
	raw := sign(t, key, map[string]any{
		"authorities": []string{"ROLE_admin", "reports"},
	})

	sub, err := r.Resolve(bearer(raw))
	require.NoError(t, err)
	assert.Equal(t, "alice", sub.Principal)
	assert.Equal(t, []string{"ROLE_admin", "reports"}, sub.Authorities)
	assert.False(t, sub.Anonymous)
	assert.False(t, sub.RememberMe)
	assert.True(t, sub.Authenticated())
	assert.True(t, sub.FullyAuthenticated())
}

func TestResolveRememberMe(t *testing.T) {
	key := newKey(t)
	r := newResolver(key, t)
	raw := sign(t, key, map[string]any{"remember_me": true})

	sub, err := r.Resolve(bearer(raw))
	require.NoError(t, err)
	assert.True(t, sub.RememberMe)
	assert.True(t, sub.Authenticated())
	assert.False(t, sub.FullyAuthenticated())
}

func TestResolveSingleAuthorityString(t *testing.T) {
	key := newKey(t)
	r := newResolver(key, t)
	raw := sign(t, key, map[string]any{"authorities": "ROLE_user"})

	sub, err := r.Resolve(bearer(raw))
	require.NoError(t, err)
	assert.Equal(t, []string{"ROLE_user"}, sub.Authorities)
}

func TestResolveGarbageToken(t *testing.T) {
	r := newResolver(newKey(t), t)

	_, err := r.Resolve(bearer("not.a.token"))
	var authErr *token.AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Contains(t, authErr.Challenge, "Bearer")
}

func TestResolveWrongKey(t *testing.T) {
	key := newKey(t)
	r := newResolver(key, t)

	other, err := jwk.Import([]byte("ffffffffffffffffffffffffffffffff"))
	require.NoError(t, err)
	require.NoError(t, other.Set(jwk.KeyIDKey, "k1"))
	require.NoError(t, other.Set(jwk.AlgorithmKey, jwa.HS256()))
	raw := sign(t, other, nil)

	_, err = r.Resolve(bearer(raw))
	var authErr *token.AuthenticationError
	require.ErrorAs(t, err, &authErr)
}

func TestResolveExpiredToken(t *testing.T) {
	key := newKey(t)
	r := newResolver(key, t)

	tok, err := jwt.NewBuilder().
		Subject("alice").
		Issuer("https://idp.example.com").
		Expiration(time.Now().Add(-time.Hour)).
		Build()
	require.NoError(t, err)
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256(), key))
	require.NoError(t, err)

	_, err = r.Resolve(bearer(string(signed)))
	var authErr *token.AuthenticationError
	require.ErrorAs(t, err, &authErr)
}

func TestResolveWrongIssuer(t *testing.T) {
	key := newKey(t)
	r := newResolver(key, t)

	tok, err := jwt.NewBuilder().
		Subject("alice").
		Issuer("https://evil.example.com").
		Expiration(time.Now().Add(time.Hour)).
		Build()
	require.NoError(t, err)
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256(), key))
	require.NoError(t, err)

	_, err = r.Resolve(bearer(string(signed)))
	var authErr *token.AuthenticationError
	require.ErrorAs(t, err, &authErr)
}

func TestResolveMissingSubject(t *testing.T) {
	key := newKey(t)
	r := newResolver(key, t)

	tok, err := jwt.NewBuilder().
		Issuer("https://idp.example.com").
		Expiration(time.Now().Add(time.Hour)).
		Build()
	require.NoError(t, err)
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256(), key))
	require.NoError(t, err)

	_, err = r.Resolve(bearer(string(signed)))
	var authErr *token.AuthenticationError
	require.ErrorAs(t, err, &authErr)
}

func TestResolveNoKeySource(t *testing.T) {
	r := token.NewResolver(nil, config.Token{})

	_, err := r.Resolve(bearer("whatever"))
	var authErr *token.AuthenticationError
	require.ErrorAs(t, err, &authErr)
}

func TestResolvePropagatesKeyErrors(t *testing.T) {
	r := token.NewResolver(
		sourceFunc(func(context.Context) (jwk.Set, error) {
			return nil, assert.AnError
		}),
		config.Token{},
	)

	_, err := r.Resolve(bearer("whatever"))
	require.ErrorIs(t, err, assert.AnError)

	// Key source failures are infrastructure errors, not bad credentials.
	var authErr *token.AuthenticationError
	assert.False(t, errors.As(err, &authErr))
}
