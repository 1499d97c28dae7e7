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
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Evaluator evaluates raw expression requirements against an Environment.
// Implementations must be safe for concurrent invocation; one evaluation
// happens per matched expression attribute per request. Evaluation errors
// are surfaced to the voter's caller and never retried.
type Evaluator interface {
	Evaluate(code string, env Environment) (bool, error)
}

// ExprEvaluator is the default Evaluator backed by expr-lang. Expressions
// are compiled against the Environment type on first use and the compiled
// programs are cached per expression text, so repeated requests pay only
// for execution.
type ExprEvaluator struct {
	opts  []expr.Option
	cache sync.Map // code -> *vm.Program
}

// NewEvaluator creates an ExprEvaluator.
func NewEvaluator() *ExprEvaluator {
	return &ExprEvaluator{opts: []expr.Option{
		expr.Env(Environment{}),
		expr.AsBool(),
		expr.Optimize(true),
	}}
}

// Evaluate runs the expression against the given environment. The
// expression must produce a bool.
func (e *ExprEvaluator) Evaluate(code string, env Environment) (bool, error) {
	prog, err := e.program(code)
	if err != nil {
		return false, err
	}
	v, err := expr.Run(prog, env)
	if err != nil {
		return false, fmt.Errorf("eval %q: %w", code, err)
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf(
			"expression %q must evaluate to bool, got %T", code, v,
		)
	}
	return b, nil
}

// program returns the compiled program for code, compiling and caching it
// on first use.
func (e *ExprEvaluator) program(code string) (*vm.Program, error) {
	if p, ok := e.cache.Load(code); ok {
		return p.(*vm.Program), nil
	}
	prog, err := expr.Compile(code, e.opts...)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", code, err)
	}
	// Duplicate compilation under contention is harmless; the first
	// stored program wins.
	p, _ := e.cache.LoadOrStore(code, prog)
	return p.(*vm.Program), nil
}

// Ensure ExprEvaluator satisfies the Evaluator contract.
var _ Evaluator = (*ExprEvaluator)(nil)
