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
	"net/netip"
	"strings"
)

// RolePrefix is the prefix that distinguishes role authorities from other
// granted authorities. HasRole inserts it exactly once.
const RolePrefix = "ROLE_"

// Kind discriminates the requirement variants an Attribute can carry.
type Kind uint8

// The supported requirement kinds. KindInvalid is the zero value and marks
// an attribute this package cannot evaluate; voters abstain on it.
const (
	KindInvalid Kind = iota
	KindRole
	KindAuthority
	KindAnyAuthority
	KindIPAddress
	KindPermitAll
	KindDenyAll
	KindAnonymous
	KindAuthenticated
	KindFullyAuthenticated
	KindRememberMe
	KindExpression
)

// Attribute is a single access requirement attached to a rule. It is an
// immutable tagged variant: sentinel kinds carry no arguments, role and
// authority kinds carry the authority names to match, and KindExpression
// carries raw expression text evaluated by a pluggable Evaluator.
//
// Multiple attributes on one rule are conjunctive; all of them must hold
// for the rule to grant access.
type Attribute struct {
	kind Kind
	args []string
}

// Kind returns the requirement variant of the attribute.
func (a Attribute) Kind() Kind { return a.kind }

// String renders the attribute as requirement text for logs and error
// messages. Raw expressions are returned verbatim.
func (a Attribute) String() string {
	switch a.kind {
	case KindRole:
		return fmt.Sprintf("hasRole(%q)", a.args[0])
	case KindAuthority:
		return fmt.Sprintf("hasAuthority(%q)", a.args[0])
	case KindAnyAuthority:
		quoted := make([]string, len(a.args))
		for i, s := range a.args {
			quoted[i] = fmt.Sprintf("%q", s)
		}
		return fmt.Sprintf("hasAnyAuthority(%s)", strings.Join(quoted, ", "))
	case KindIPAddress:
		return fmt.Sprintf("hasIpAddress(%q)", a.args[0])
	case KindPermitAll:
		return "permitAll"
	case KindDenyAll:
		return "denyAll"
	case KindAnonymous:
		return "anonymous"
	case KindAuthenticated:
		return "authenticated"
	case KindFullyAuthenticated:
		return "fullyAuthenticated"
	case KindRememberMe:
		return "rememberMe"
	case KindExpression:
		return a.args[0]
	default:
		return "<invalid>"
	}
}

// HasRole requires the granted authority RolePrefix + role. The role must
// not be empty and must not already carry the prefix; the prefix is
// inserted exactly once. Use HasAuthority to match an authority verbatim.
func HasRole(role string) (Attribute, error) {
	if role == "" {
		return Attribute{}, fmt.Errorf("role must not be empty")
	}
	if strings.HasPrefix(role, RolePrefix) {
		return Attribute{}, fmt.Errorf(
			"role must not start with %q since it is inserted automatically, got %q",
			RolePrefix, role,
		)
	}
	return Attribute{
		kind: KindRole,
		args: []string{RolePrefix + role},
	}, nil
}

// HasAuthority requires the named granted authority verbatim. No prefix
// handling is applied.
func HasAuthority(authority string) Attribute {
	return Attribute{
		kind: KindAuthority,
		args: []string{authority},
	}
}

// HasAnyAuthority requires at least one of the given authorities. Called
// with no authorities, the requirement can never be satisfied and the
// resulting rule always denies.
func HasAnyAuthority(authorities ...string) Attribute {
	args := make([]string, len(authorities))
	copy(args, authorities)
	return Attribute{
		kind: KindAnyAuthority,
		args: args,
	}
}

// HasIPAddress requires the request to originate from the given literal IP
// address (e.g. "192.168.1.79") or CIDR subnet (e.g. "192.168.0.0/24").
// The argument is validated eagerly so that malformed addresses surface at
// configuration time.
func HasIPAddress(cidrOrIP string) (Attribute, error) {
	if strings.ContainsRune(cidrOrIP, '/') {
		if _, err := netip.ParsePrefix(cidrOrIP); err != nil {
			return Attribute{}, fmt.Errorf("parse cidr %q: %w", cidrOrIP, err)
		}
	} else if _, err := netip.ParseAddr(cidrOrIP); err != nil {
		return Attribute{}, fmt.Errorf("parse ip %q: %w", cidrOrIP, err)
	}
	return Attribute{
		kind: KindIPAddress,
		args: []string{cidrOrIP},
	}, nil
}

// PermitAll grants access to any request.
func PermitAll() Attribute { return Attribute{kind: KindPermitAll} }

// DenyAll denies access to any request.
func DenyAll() Attribute { return Attribute{kind: KindDenyAll} }

// Anonymous requires an unauthenticated subject.
func Anonymous() Attribute { return Attribute{kind: KindAnonymous} }

// Authenticated requires any authenticated subject, including subjects
// authenticated through a remember-me token.
func Authenticated() Attribute { return Attribute{kind: KindAuthenticated} }

// FullyAuthenticated requires a subject that authenticated with explicit
// credentials, excluding remember-me sessions.
func FullyAuthenticated() Attribute {
	return Attribute{kind: KindFullyAuthenticated}
}

// RememberMe requires a subject authenticated through a remember-me token.
func RememberMe() Attribute { return Attribute{kind: KindRememberMe} }

// Expression wraps raw requirement text to be evaluated by the configured
// Evaluator. It is the general escape hatch; the text is not validated
// here, so malformed expressions surface as evaluation errors at request
// time.
func Expression(text string) Attribute {
	return Attribute{
		kind: KindExpression,
		args: []string{text},
	}
}
