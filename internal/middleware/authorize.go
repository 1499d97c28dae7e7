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
	"errors"
	"log/slog"
	"net/http"

	"github.com/deep-rent/warden/authz"
	"github.com/deep-rent/warden/internal/token"
)

// SubjectFunc supplies the security subject of a request.
type SubjectFunc func(req *http.Request) (authz.Subject, error)

// Authorize enforces the authorization rules on every request. Requests
// no rule applies to pass through unchecked; this layer imposes no
// requirement on them. For governed requests the subject is resolved and
// the voter decides: only an explicit grant forwards the request. Both a
// deny and an abstention reject with 403, and evaluation failures reject
// with 403 as well, so the gateway fails closed.
func Authorize(
	log *slog.Logger,
	src *authz.Source,
	voter authz.Voter,
	subject SubjectFunc,
) Middleware {
	log = log.With("name", "middleware.Authorize")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
			attrs, ok := src.Lookup(req)
			if !ok {
				next.ServeHTTP(res, req)
				return
			}

			sub, err := subject(req)
			if err != nil {
				var unauthenticated *token.AuthenticationError
				if errors.As(err, &unauthenticated) {
					res.Header().Set(
						"WWW-Authenticate",
						unauthenticated.Challenge,
					)
					sendStatus(res, http.StatusUnauthorized)
					return
				}
				log.Error("subject resolution failed",
					"method", req.Method,
					"path", req.URL.Path,
					"error", err,
				)
				sendStatus(res, http.StatusInternalServerError)
				return
			}

			decision, err := voter.Vote(sub, req, attrs)
			if err != nil {
				// Evaluation failures are not retried; deny and move on.
				log.Error("rule evaluation failed",
					"method", req.Method,
					"path", req.URL.Path,
					"principal", sub.Principal,
					"error", err,
				)
				sendStatus(res, http.StatusForbidden)
				return
			}
			if decision != authz.Grant {
				log.Debug("access rejected",
					"method", req.Method,
					"path", req.URL.Path,
					"principal", sub.Principal,
					"decision", decision.String(),
				)
				sendStatus(res, http.StatusForbidden)
				return
			}

			next.ServeHTTP(res, req)
		})
	}
}
