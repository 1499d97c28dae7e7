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

func TestNewPattern(t *testing.T) {
	t.Run("rejects empty glob", func(t *testing.T) {
		_, err := authz.NewPattern("")
		require.Error(t, err)
	})

	t.Run("rejects malformed glob", func(t *testing.T) {
		_, err := authz.NewPattern("/admin/[")
		require.Error(t, err)
	})
}

func TestPathPatternMatches(t *testing.T) {
	tests := []struct {
		name   string
		method string
		glob   string
		req    string
		path   string
		want   bool
	}{
		{
			name: "subtree glob",
			glob: "/admin/**",
			req:  "GET", path: "/admin/panel",
			want: true,
		},
		{
			name: "nested subtree",
			glob: "/admin/**",
			req:  "GET", path: "/admin/users/42/edit",
			want: true,
		},
		{
			name: "outside subtree",
			glob: "/admin/**",
			req:  "GET", path: "/public/home",
			want: false,
		},
		{
			name: "catch all",
			glob: "/**",
			req:  "GET", path: "/public/home",
			want: true,
		},
		{
			name: "exact path",
			glob: "/login",
			req:  "POST", path: "/login",
			want: true,
		},
		{
			name: "single segment wildcard stays in segment",
			glob: "/users/*",
			req:  "GET", path: "/users/42/edit",
			want: false,
		},
		{
			name:   "method restriction matches",
			method: "POST",
			glob:   "/api/**",
			req:    "POST", path: "/api/items",
			want: true,
		},
		{
			name:   "method restriction rejects",
			method: "POST",
			glob:   "/api/**",
			req:    "GET", path: "/api/items",
			want: false,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p, err := authz.NewMethodPattern(tc.method, tc.glob)
			require.NoError(t, err)
			req := httptest.NewRequest(tc.req, tc.path, nil)
			assert.Equal(t, tc.want, p.Matches(req))
		})
	}
}

func TestPathPatternString(t *testing.T) {
	p, err := authz.NewMethodPattern("get", "/admin/**")
	require.NoError(t, err)
	assert.Equal(t, "GET /admin/**", p.String())

	q := authz.MustPattern("/admin/**")
	assert.Equal(t, "/admin/**", q.String())
}

func TestMustPatternPanics(t *testing.T) {
	assert.Panics(t, func() { authz.MustPattern("") })
}
