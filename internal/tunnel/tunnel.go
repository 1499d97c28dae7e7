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

// Package tunnel builds the reverse proxy handler that forwards
// authorized requests to the protected upstream.
package tunnel

import (
	"net/http"
	"net/url"
	"time"

	"github.com/deep-rent/nexus/proxy"
)

// DefaultFlushInterval bounds the latency of slow but non-streaming
// upstream responses. True streaming responses are detected and flushed
// immediately regardless of this setting.
const DefaultFlushInterval = 200 * time.Millisecond

// New creates a reverse proxy handler targeting the given upstream URL.
// A non-positive flush interval falls back to DefaultFlushInterval.
func New(target *url.URL, flush time.Duration) http.Handler {
	if flush <= 0 {
		flush = DefaultFlushInterval
	}
	return proxy.NewHandler(
		target,
		proxy.WithFlushInterval(flush),
		proxy.WithTransport(&http.Transport{
			// Rely on the HTTP_PROXY and NO_PROXY environment variables.
			Proxy: http.ProxyFromEnvironment,
		}),
	)
}
