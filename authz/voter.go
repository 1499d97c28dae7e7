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
	"net/http"
)

// Decision is the verdict of a single voter on one authorization question.
type Decision int

const (
	// Abstain means the voter recognized none of the supplied attributes
	// and leaves the decision to other voters.
	Abstain Decision = iota
	// Grant means every recognized requirement held.
	Grant
	// Deny means at least one recognized requirement did not hold.
	Deny
)

// String returns the verdict name.
func (d Decision) String() string {
	switch d {
	case Grant:
		return "grant"
	case Deny:
		return "deny"
	case Abstain:
		return "abstain"
	default:
		return fmt.Sprintf("decision(%d)", int(d))
	}
}

// Voter issues a grant, deny, or abstain verdict for one request given the
// attributes looked up for it. Voters are stateless and safe for
// concurrent use; an external aggregator may combine several voter kinds.
// A returned error is an evaluation failure, not a deny: the caller is
// expected to map it to a fail-closed deny without retrying.
type Voter interface {
	Vote(sub Subject, req *http.Request, attrs []Attribute) (Decision, error)
}

// ExpressionVoter evaluates the attribute kinds of this package. All kinds
// except KindExpression are checked directly against the subject and
// request; raw expressions are delegated to the Evaluator. Attributes of
// unknown kind are not recognized, so a set containing only those yields
// an abstention.
type ExpressionVoter struct {
	eval Evaluator
}

// NewVoter creates an ExpressionVoter. A nil evaluator defaults to
// NewEvaluator.
func NewVoter(eval Evaluator) *ExpressionVoter {
	if eval == nil {
		eval = NewEvaluator()
	}
	return &ExpressionVoter{eval: eval}
}

// Vote combines the recognized attributes by logical AND: every
// requirement must hold for a grant, the first failing requirement denies,
// and a set with no recognized attribute abstains. A well-formed but false
// requirement is a deny, never an error; errors arise only when an
// expression cannot be evaluated against the environment.
func (v *ExpressionVoter) Vote(
	sub Subject,
	req *http.Request,
	attrs []Attribute,
) (Decision, error) {
	recognized := false
	for _, a := range attrs {
		if !supports(a) {
			continue
		}
		recognized = true
		ok, err := v.check(a, sub, req)
		if err != nil {
			return Deny, err
		}
		if !ok {
			return Deny, nil
		}
	}
	if !recognized {
		return Abstain, nil
	}
	return Grant, nil
}

// supports reports whether the voter can evaluate the attribute.
func supports(a Attribute) bool {
	return a.kind > KindInvalid && a.kind <= KindExpression
}

// check evaluates a single recognized attribute.
func (v *ExpressionVoter) check(
	a Attribute,
	sub Subject,
	req *http.Request,
) (bool, error) {
	switch a.kind {
	case KindRole, KindAuthority:
		return sub.HasAuthority(a.args[0]), nil
	case KindAnyAuthority:
		// Zero authorities means the requirement is never satisfiable.
		for _, want := range a.args {
			if sub.HasAuthority(want) {
				return true, nil
			}
		}
		return false, nil
	case KindIPAddress:
		if req == nil {
			return false, nil
		}
		addr, ok := remoteAddr(req)
		return ok && matchIP(a.args[0], addr), nil
	case KindPermitAll:
		return true, nil
	case KindDenyAll:
		return false, nil
	case KindAnonymous:
		return sub.Anonymous, nil
	case KindAuthenticated:
		return sub.Authenticated(), nil
	case KindFullyAuthenticated:
		return sub.FullyAuthenticated(), nil
	case KindRememberMe:
		return sub.RememberMe, nil
	case KindExpression:
		return v.eval.Evaluate(a.args[0], NewEnvironment(sub, req))
	default:
		return false, fmt.Errorf("unsupported attribute %s", a)
	}
}

// Ensure ExpressionVoter satisfies the Voter contract.
var _ Voter = (*ExpressionVoter)(nil)
