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
	"net/http"
	"net/netip"
)

// Environment is the evaluation environment for raw expression
// requirements. It exposes the subject and request metadata as fields and
// the shorthand checks as callable functions, so expressions can combine
// them freely, e.g.
//
//	HasRole("ADMIN") and Method == "GET"
//	IsAuthenticated() or HasIpAddress("10.0.0.0/8")
type Environment struct {
	// Principal is the authenticated principal, empty for anonymous.
	Principal string
	// Authorities are the granted authority tokens.
	Authorities []string
	// Anonymous reports an unauthenticated subject.
	Anonymous bool
	// RememberMe reports a remember-me authenticated subject.
	RememberMe bool
	// Method is the HTTP method of the request.
	Method string
	// Path is the request path.
	Path string
	// RemoteIP is the client address of the request, without port.
	RemoteIP string

	// Shorthand checks mirroring the attribute kinds.
	HasRole              func(role string) bool
	HasAuthority         func(authority string) bool
	HasAnyAuthority      func(authorities ...string) bool
	HasIpAddress         func(cidrOrIP string) bool
	IsAnonymous          func() bool
	IsAuthenticated      func() bool
	IsFullyAuthenticated func() bool
	IsRememberMe         func() bool
	PermitAll            func() bool
	DenyAll              func() bool
}

// NewEnvironment builds the evaluation environment for one request. The
// request may be nil, in which case the request-derived fields stay empty
// and HasIpAddress never matches.
func NewEnvironment(sub Subject, req *http.Request) Environment {
	env := Environment{
		Principal:   sub.Principal,
		Authorities: sub.Authorities,
		Anonymous:   sub.Anonymous,
		RememberMe:  sub.RememberMe,
	}

	var addr netip.Addr
	var haveAddr bool
	if req != nil {
		env.Method = req.Method
		env.Path = req.URL.Path
		if addr, haveAddr = remoteAddr(req); haveAddr {
			env.RemoteIP = addr.String()
		}
	}

	env.HasRole = func(role string) bool {
		return sub.HasAuthority(RolePrefix + role)
	}
	env.HasAuthority = sub.HasAuthority
	env.HasAnyAuthority = func(authorities ...string) bool {
		for _, a := range authorities {
			if sub.HasAuthority(a) {
				return true
			}
		}
		return false
	}
	env.HasIpAddress = func(cidrOrIP string) bool {
		return haveAddr && matchIP(cidrOrIP, addr)
	}
	env.IsAnonymous = func() bool { return sub.Anonymous }
	env.IsAuthenticated = sub.Authenticated
	env.IsFullyAuthenticated = sub.FullyAuthenticated
	env.IsRememberMe = func() bool { return sub.RememberMe }
	env.PermitAll = func() bool { return true }
	env.DenyAll = func() bool { return false }

	return env
}
