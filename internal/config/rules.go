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

package config

import (
	"fmt"

	"github.com/deep-rent/warden/authz"
)

// Registry translates the declarative rule list into a populated authz
// registry, preserving declaration order. Any invalid declaration aborts
// with a configuration error.
func (c *Config) Registry() (*authz.Registry, error) {
	b := authz.NewBuilder()
	for i, r := range c.Rules {
		patterns, err := r.patterns()
		if err != nil {
			return nil, fmt.Errorf("rules[%d]: %w", i, err)
		}
		if err := r.apply(b.Match(patterns...)); err != nil {
			return nil, fmt.Errorf("rules[%d]: %w", i, err)
		}
	}
	reg, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("build rules: %w", err)
	}
	return reg, nil
}

// patterns expands the path glob into one pattern per declared method, or
// a single method-less pattern when no methods are given.
func (r Rule) patterns() ([]authz.Pattern, error) {
	if len(r.Methods) == 0 {
		p, err := authz.NewPattern(r.Path)
		if err != nil {
			return nil, err
		}
		return []authz.Pattern{p}, nil
	}
	out := make([]authz.Pattern, 0, len(r.Methods))
	for _, m := range r.Methods {
		p, err := authz.NewMethodPattern(m, r.Path)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// apply finalizes the rule on the builder with its single requirement.
func (r Rule) apply(rb *authz.RuleBuilder) error {
	switch {
	case r.Role != "":
		rb.HasRole(r.Role)
	case r.Authority != "":
		rb.HasAuthority(r.Authority)
	case r.AnyAuthority != nil:
		rb.HasAnyAuthority(r.AnyAuthority...)
	case r.IP != "":
		rb.HasIPAddress(r.IP)
	case r.Expr != "":
		rb.Access(r.Expr)
	case r.Permit:
		rb.PermitAll()
	case r.Deny:
		rb.DenyAll()
	case r.Anonymous:
		rb.Anonymous()
	case r.Authenticated:
		rb.Authenticated()
	case r.FullyAuthenticated:
		rb.FullyAuthenticated()
	case r.RememberMe:
		rb.RememberMe()
	default:
		return fmt.Errorf("no requirement set")
	}
	return nil
}
