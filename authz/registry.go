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
	"errors"
	"fmt"
)

// ErrFrozen is returned by Register once the registry has been compiled.
var ErrFrozen = errors.New("registry is frozen after compilation")

// Rule binds one or more request patterns to a conjunctive set of access
// requirements. Both sets are non-empty and immutable once registered.
type Rule struct {
	patterns   []Pattern
	attributes []Attribute
}

// Patterns returns the request patterns of the rule.
func (r Rule) Patterns() []Pattern {
	out := make([]Pattern, len(r.patterns))
	copy(out, r.patterns)
	return out
}

// Attributes returns the access requirements of the rule.
func (r Rule) Attributes() []Attribute {
	out := make([]Attribute, len(r.attributes))
	copy(out, r.attributes)
	return out
}

// Registry accumulates authorization rules in registration order during
// application startup. Registration order is the sole tie-break between
// overlapping patterns: the first registered rule whose pattern matches a
// request governs it. The registry is single-threaded and freezes once
// compiled.
type Registry struct {
	rules  []Rule
	frozen bool
}

// NewRegistry creates an empty rule registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends one rule. It fails when the registry has already been
// compiled, or when either the pattern set or the attribute set is empty.
func (r *Registry) Register(patterns []Pattern, attributes []Attribute) error {
	if r.frozen {
		return ErrFrozen
	}
	if len(patterns) == 0 {
		return fmt.Errorf("at least one pattern is required")
	}
	if len(attributes) == 0 {
		return fmt.Errorf("at least one attribute is required")
	}
	for i, p := range patterns {
		if p == nil {
			return fmt.Errorf("patterns[%d] must not be nil", i)
		}
	}
	rule := Rule{
		patterns:   make([]Pattern, len(patterns)),
		attributes: make([]Attribute, len(attributes)),
	}
	copy(rule.patterns, patterns)
	copy(rule.attributes, attributes)
	r.rules = append(r.rules, rule)
	return nil
}

// Rules returns the registered rules in registration order.
func (r *Registry) Rules() []Rule {
	out := make([]Rule, len(r.rules))
	copy(out, r.rules)
	return out
}

// Compile flattens the registered rules into an ordered pattern lookup
// table and freezes the registry. When the exact same pattern (identified
// by its string form) is registered more than once, the entry keeps its
// first-occurrence position but carries the attributes of the latest
// registration, mirroring the put semantics of an ordered map.
func (r *Registry) Compile() Table {
	r.frozen = true
	var entries []Entry
	index := make(map[string]int)
	for _, rule := range r.rules {
		for _, p := range rule.patterns {
			if s, ok := p.(fmt.Stringer); ok {
				if at, dup := index[s.String()]; dup {
					entries[at].attributes = rule.attributes
					continue
				}
				index[s.String()] = len(entries)
			}
			entries = append(entries, Entry{
				pattern:    p,
				attributes: rule.attributes,
			})
		}
	}
	return Table{entries: entries}
}

// Entry is one pattern of the lookup table together with the access
// requirements that govern requests matching it.
type Entry struct {
	pattern    Pattern
	attributes []Attribute
}

// Pattern returns the request pattern of the entry.
func (e Entry) Pattern() Pattern { return e.pattern }

// Attributes returns the access requirements of the entry. The returned
// slice must not be modified.
func (e Entry) Attributes() []Attribute { return e.attributes }

// Table is the ordered pattern lookup table derived from a Registry. It is
// read-only and safe for concurrent scans.
type Table struct {
	entries []Entry
}

// Empty reports whether no rule was ever registered.
func (t Table) Empty() bool { return len(t.entries) == 0 }

// Len returns the number of table entries.
func (t Table) Len() int { return len(t.entries) }

// Entries returns the table entries in registration order.
func (t Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}
