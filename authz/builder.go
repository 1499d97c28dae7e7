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

import "fmt"

// Builder offers a fluent configuration surface over a Registry. Each call
// to Match opens a RuleBuilder for one group of patterns; the shorthand
// call on the RuleBuilder finalizes the rule and hands control back to the
// Builder for the next group:
//
//	reg, err := authz.NewBuilder().
//		Path("/admin/**").HasRole("ADMIN").
//		Path("/**").PermitAll().
//		Build()
//
// Errors from shorthand validation or registration are recorded and
// reported by Build, so a misconfigured rule chain fails as a whole at
// startup.
type Builder struct {
	reg *Registry
	err error
}

// NewBuilder creates a Builder over a fresh registry.
func NewBuilder() *Builder {
	return &Builder{reg: NewRegistry()}
}

// Match opens a rule for the given request patterns.
func (b *Builder) Match(patterns ...Pattern) *RuleBuilder {
	return &RuleBuilder{parent: b, patterns: patterns}
}

// Path opens a rule for the given path globs, matching any HTTP method.
func (b *Builder) Path(globs ...string) *RuleBuilder {
	patterns := make([]Pattern, 0, len(globs))
	for _, g := range globs {
		p, err := NewPattern(g)
		if err != nil {
			b.fail(err)
			continue
		}
		patterns = append(patterns, p)
	}
	return &RuleBuilder{parent: b, patterns: patterns}
}

// Build returns the populated registry, or the first error recorded while
// chaining.
func (b *Builder) Build() (*Registry, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.reg, nil
}

// Source compiles the registry and wraps it into a Source using the given
// evaluator. Like Build, it reports the first chaining error; like
// authz.Build, it returns a nil source when no rule was registered.
func (b *Builder) Source(eval Evaluator) (*Source, error) {
	reg, err := b.Build()
	if err != nil {
		return nil, err
	}
	return Build(reg.Compile(), eval), nil
}

// fail records the first error encountered while chaining.
func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// RuleBuilder accumulates one pattern group. Exactly one requirement call
// finalizes the rule on the parent Builder and returns it.
type RuleBuilder struct {
	parent   *Builder
	patterns []Pattern
}

// finish registers the rule on the parent and returns it.
func (rb *RuleBuilder) finish(attrs ...Attribute) *Builder {
	if err := rb.parent.reg.Register(rb.patterns, attrs); err != nil {
		rb.parent.fail(err)
	}
	return rb.parent
}

// HasRole requires the role authority RolePrefix + role.
func (rb *RuleBuilder) HasRole(role string) *Builder {
	a, err := HasRole(role)
	if err != nil {
		rb.parent.fail(err)
		return rb.parent
	}
	return rb.finish(a)
}

// HasAuthority requires the named authority verbatim.
func (rb *RuleBuilder) HasAuthority(authority string) *Builder {
	return rb.finish(HasAuthority(authority))
}

// HasAnyAuthority requires at least one of the given authorities. With no
// authorities the rule always denies.
func (rb *RuleBuilder) HasAnyAuthority(authorities ...string) *Builder {
	return rb.finish(HasAnyAuthority(authorities...))
}

// HasIPAddress requires the request to originate from the given IP or
// CIDR subnet.
func (rb *RuleBuilder) HasIPAddress(cidrOrIP string) *Builder {
	a, err := HasIPAddress(cidrOrIP)
	if err != nil {
		rb.parent.fail(err)
		return rb.parent
	}
	return rb.finish(a)
}

// PermitAll allows any request.
func (rb *RuleBuilder) PermitAll() *Builder {
	return rb.finish(PermitAll())
}

// DenyAll rejects any request.
func (rb *RuleBuilder) DenyAll() *Builder {
	return rb.finish(DenyAll())
}

// Anonymous requires an unauthenticated subject.
func (rb *RuleBuilder) Anonymous() *Builder {
	return rb.finish(Anonymous())
}

// Authenticated requires any authenticated subject.
func (rb *RuleBuilder) Authenticated() *Builder {
	return rb.finish(Authenticated())
}

// FullyAuthenticated requires a subject authenticated with explicit
// credentials.
func (rb *RuleBuilder) FullyAuthenticated() *Builder {
	return rb.finish(FullyAuthenticated())
}

// RememberMe requires a remember-me authenticated subject.
func (rb *RuleBuilder) RememberMe() *Builder {
	return rb.finish(RememberMe())
}

// Access secures the patterns with a raw requirement expression.
func (rb *RuleBuilder) Access(expression string) *Builder {
	return rb.finish(Expression(expression))
}

// Require secures the patterns with an explicit conjunctive attribute set.
func (rb *RuleBuilder) Require(attrs ...Attribute) *Builder {
	if len(attrs) == 0 {
		rb.parent.fail(fmt.Errorf("at least one attribute is required"))
		return rb.parent
	}
	return rb.finish(attrs...)
}
