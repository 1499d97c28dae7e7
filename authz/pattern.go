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

package authz

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Pattern selects the requests a rule applies to. Implementations must be
// safe for concurrent use; Matches is called once per incoming request.
//
// Patterns that additionally implement fmt.Stringer take part in duplicate
// detection during Registry.Compile: two patterns with the same string form
// are treated as the same table entry.
type Pattern interface {
	Matches(req *http.Request) bool
}

// PathPattern matches requests by URL path glob and an optional HTTP
// method. Globs use doublestar syntax, so "/admin/**" covers the whole
// subtree below /admin.
type PathPattern struct {
	method string
	glob   string
}

// NewPattern compiles a path glob that matches any HTTP method.
func NewPattern(glob string) (*PathPattern, error) {
	return NewMethodPattern("", glob)
}

// NewMethodPattern compiles a path glob restricted to the given HTTP
// method. An empty method matches any method.
func NewMethodPattern(method, glob string) (*PathPattern, error) {
	if glob == "" {
		return nil, fmt.Errorf("pattern must not be empty")
	}
	if !doublestar.ValidatePattern(glob) {
		return nil, fmt.Errorf("invalid pattern %q", glob)
	}
	return &PathPattern{
		method: strings.ToUpper(strings.TrimSpace(method)),
		glob:   glob,
	}, nil
}

// MustPattern is like NewPattern but panics on an invalid glob. It is a
// convenience for statically known patterns in configuration code.
func MustPattern(glob string) *PathPattern {
	p, err := NewPattern(glob)
	if err != nil {
		panic(err)
	}
	return p
}

// Matches reports whether the request method and path fall under the
// pattern.
func (p *PathPattern) Matches(req *http.Request) bool {
	if p.method != "" && p.method != req.Method {
		return false
	}
	ok, err := doublestar.Match(p.glob, req.URL.Path)
	return err == nil && ok
}

// String returns the canonical form of the pattern, e.g. "GET /admin/**"
// or "/admin/**" when no method is set. It doubles as the duplicate
// detection key during compilation.
func (p *PathPattern) String() string {
	if p.method == "" {
		return p.glob
	}
	return p.method + " " + p.glob
}
