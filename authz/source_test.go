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

package authz_test

import (
	"net/http/httptest"
	"testing"

	"github.com/deep-rent/warden/authz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	t.Run("absent for empty table", func(t *testing.T) {
		src := authz.Build(authz.NewRegistry().Compile(), nil)
		assert.Nil(t, src)
	})

	t.Run("present for populated table", func(t *testing.T) {
		reg := authz.NewRegistry()
		require.NoError(t, reg.Register(
			[]authz.Pattern{authz.MustPattern("/**")},
			[]authz.Attribute{authz.PermitAll()},
		))
		src := authz.Build(reg.Compile(), nil)
		require.NotNil(t, src)
		assert.NotNil(t, src.Evaluator())
	})
}

func TestSourceLookup(t *testing.T) {
	reg := authz.NewRegistry()
	require.NoError(t, reg.Register(
		[]authz.Pattern{authz.MustPattern("/admin/**")},
		[]authz.Attribute{authz.HasAuthority("ROLE_ADMIN")},
	))
	require.NoError(t, reg.Register(
		[]authz.Pattern{authz.MustPattern("/admin/**")},
		[]authz.Attribute{authz.DenyAll()},
	))
	require.NoError(t, reg.Register(
		[]authz.Pattern{authz.MustPattern("/public/**")},
		[]authz.Attribute{authz.PermitAll()},
	))
	src := authz.Build(reg.Compile(), nil)
	require.NotNil(t, src)

	t.Run("first match wins", func(t *testing.T) {
		// Both /admin entries overlap; the later registration replaced the
		// attributes, but position-wise the /admin entry still precedes
		// nothing else matching here.
		req := httptest.NewRequest("GET", "/admin/panel", nil)
		attrs, ok := src.Lookup(req)
		require.True(t, ok)
		require.Len(t, attrs, 1)
		assert.Equal(t, authz.KindDenyAll, attrs[0].Kind())
	})

	t.Run("no match yields none, not absent", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/other/page", nil)
		attrs, ok := src.Lookup(req)
		assert.False(t, ok)
		assert.Nil(t, attrs)
	})

	t.Run("lookup is idempotent", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/public/home", nil)
		first, ok1 := src.Lookup(req)
		second, ok2 := src.Lookup(req)
		assert.True(t, ok1)
		assert.True(t, ok2)
		assert.Equal(t, first, second)
	})
}

func TestSourceLookupOrdering(t *testing.T) {
	// Two overlapping rules: the earlier registered one governs.
	reg := authz.NewRegistry()
	require.NoError(t, reg.Register(
		[]authz.Pattern{authz.MustPattern("/admin/**")},
		[]authz.Attribute{authz.HasAuthority("ROLE_ADMIN")},
	))
	require.NoError(t, reg.Register(
		[]authz.Pattern{authz.MustPattern("/**")},
		[]authz.Attribute{authz.PermitAll()},
	))
	src := authz.Build(reg.Compile(), nil)
	require.NotNil(t, src)

	attrs, ok := src.Lookup(httptest.NewRequest("GET", "/admin/panel", nil))
	require.True(t, ok)
	require.Len(t, attrs, 1)
	assert.Equal(t, authz.KindAuthority, attrs[0].Kind())

	attrs, ok = src.Lookup(httptest.NewRequest("GET", "/public/home", nil))
	require.True(t, ok)
	require.Len(t, attrs, 1)
	assert.Equal(t, authz.KindPermitAll, attrs[0].Kind())
}
