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

package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
)

// Catch wraps a handler and converts panics into a 500 Internal Server
// Error. It logs the panic value and stack trace along with basic request
// context.
func Catch(log *slog.Logger) Middleware {
	log = log.With("name", "middleware.Catch")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
			defer func() {
				// Intercept a panic from downstream handlers.
				if err := recover(); err != nil {
					log.Error("unhandled panic",
						"method", req.Method,
						"path", req.URL.Path,
						"panic", err,
						"stack", string(debug.Stack()),
					)
					sendStatus(res, http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(res, req)
		})
	}
}
