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
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// remoteAddr extracts the client IP from the request's RemoteAddr.
// It tolerates both "host:port" and bare host forms.
func remoteAddr(req *http.Request) (netip.Addr, bool) {
	raw := req.RemoteAddr
	if raw == "" {
		return netip.Addr{}, false
	}
	if host, _, err := net.SplitHostPort(raw); err == nil {
		raw = host
	}
	addr, err := netip.ParseAddr(raw)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}

// matchIP reports whether addr is covered by the given literal IP or CIDR
// subnet. Malformed arguments never match.
func matchIP(cidrOrIP string, addr netip.Addr) bool {
	if strings.ContainsRune(cidrOrIP, '/') {
		prefix, err := netip.ParsePrefix(cidrOrIP)
		if err != nil {
			return false
		}
		return prefix.Contains(addr)
	}
	want, err := netip.ParseAddr(cidrOrIP)
	if err != nil {
		return false
	}
	return want.Unmap() == addr
}
