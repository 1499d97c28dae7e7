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

// Package authz implements an ordered URL-authorization rule engine.
//
// At configuration time, callers register rules mapping request patterns
// to access requirements, either directly on a Registry or through the
// fluent Builder. The registry compiles into an ordered lookup Table which
// a Source wraps for per-request lookups: the first registered pattern
// that matches a request wins, and later matching rules are never
// consulted. At request time, a Voter evaluates the looked-up requirements
// against the current Subject and issues a grant, deny, or abstain
// verdict. Raw expression requirements are delegated to a pluggable
// Evaluator; everything else is evaluated directly against the subject
// without text interpretation.
//
// All configuration-time operations are single-threaded and fail fast on
// invalid input. Compiled tables, sources, and voters are read-only and
// safe for concurrent use by any number of request goroutines.
package authz

import "slices"

// Subject is a snapshot of the security context of one request: the
// authenticated principal, its granted authorities, and how it was
// authenticated. The zero value is an anonymous subject only if Anonymous
// is set; suppliers decide how unauthenticated requests are represented.
type Subject struct {
	// Principal names the authenticated entity, typically a user ID.
	Principal string
	// Authorities are the granted authority tokens, including any
	// RolePrefix-ed role authorities.
	Authorities []string
	// Anonymous is true when the request carries no authentication.
	Anonymous bool
	// RememberMe is true when the subject was authenticated through a
	// long-lived remember-me token rather than explicit credentials.
	RememberMe bool
}

// HasAuthority reports whether the subject holds the named authority.
func (s Subject) HasAuthority(authority string) bool {
	return slices.Contains(s.Authorities, authority)
}

// Authenticated reports whether the subject is authenticated at all,
// including remember-me sessions.
func (s Subject) Authenticated() bool { return !s.Anonymous }

// FullyAuthenticated reports whether the subject authenticated with
// explicit credentials, excluding remember-me sessions.
func (s Subject) FullyAuthenticated() bool {
	return !s.Anonymous && !s.RememberMe
}
