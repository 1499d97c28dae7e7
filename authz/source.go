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

import "net/http"

// Source maps incoming requests to the access requirements that govern
// them. It wraps a compiled Table together with the Evaluator used for raw
// expression requirements, and is read-only and safe for concurrent
// lookups.
type Source struct {
	table Table
	eval  Evaluator
}

// Build wraps a compiled table into a Source. It returns nil when the
// table is empty, signaling that no rule was ever registered and no
// authorization stage should be installed at all. This is distinct from a
// per-request lookup miss, which Lookup reports as a "none" result. A nil
// evaluator defaults to NewEvaluator.
func Build(table Table, eval Evaluator) *Source {
	if table.Empty() {
		return nil
	}
	if eval == nil {
		eval = NewEvaluator()
	}
	return &Source{table: table, eval: eval}
}

// Lookup scans the table in registration order and returns the attributes
// of the first entry whose pattern matches the request. The second return
// is false when no entry matches, meaning this layer imposes no
// requirement on the request. The returned slice must not be modified.
func (s *Source) Lookup(req *http.Request) ([]Attribute, bool) {
	for _, e := range s.table.entries {
		if e.pattern.Matches(req) {
			return e.attributes, true
		}
	}
	return nil, false
}

// Evaluator returns the expression evaluator associated with the source.
func (s *Source) Evaluator() Evaluator { return s.eval }
