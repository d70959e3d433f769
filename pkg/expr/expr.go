// Package expr provides the CEL (Common Expression Language) environment for
// rule guard expressions.
//
// Guard expressions are evaluated against the numeric facts of one analysis
// and must return a boolean. Variables:
//   - `budget` (double): Declared project budget, 0 when absent.
//   - `hasBudget` (bool): Whether a budget was supplied.
//   - `bidPrice` (double): Declared bid price, 0 when absent.
//   - `textLength` (int): Length of the document text in runes.
package expr

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/ext"
)

// Protect CEL environment creation and compilation from concurrent access.
var celMutex sync.Mutex

// Environment provides a thread-safe wrapper around a [*cel.Env].
type Environment struct {
	env *cel.Env
}

// NewEnvironment creates a new [Environment] exposing the guard variables.
func NewEnvironment() (*Environment, error) {
	celMutex.Lock()
	defer celMutex.Unlock()

	celEnv, err := cel.NewEnv(
		ext.Math(),
		ext.Strings(),
		cel.Variable("budget", cel.DoubleType),
		cel.Variable("hasBudget", cel.BoolType),
		cel.Variable("bidPrice", cel.DoubleType),
		cel.Variable("textLength", cel.IntType),
	)
	if err != nil {
		return nil, fmt.Errorf("create CEL environment: %w", err)
	}

	return &Environment{env: celEnv}, nil
}

// MustNewEnvironment creates a new [Environment] and panics on error.
func MustNewEnvironment() *Environment {
	env, err := NewEnvironment()
	if err != nil {
		panic(err)
	}

	return env
}

// Compile compiles a guard expression and returns a program. Expressions
// that do not produce a boolean are rejected at compile time.
//
//nolint:ireturn // Following CEL's function signature.
func (e *Environment) Compile(expression string) (cel.Program, error) {
	celMutex.Lock()
	defer celMutex.Unlock()

	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile expression: %w", issues.Err())
	}

	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("expression %q: must return a boolean, got %s", expression, ast.OutputType())
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("create program: %w", err)
	}

	return program, nil
}

// EvalBool evaluates a compiled guard program against the given activation.
// A non-boolean result or an evaluation error yields an error.
func EvalBool(program cel.Program, vars map[string]any) (bool, error) {
	result, _, err := program.Eval(vars)
	if err != nil {
		return false, fmt.Errorf("evaluate expression: %w", err)
	}

	boolVal, ok := result.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression returned %T, expected bool", result.Value())
	}

	return boolVal, nil
}
