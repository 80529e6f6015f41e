// Package formula evaluates the postfix (RPN) stat expressions used by spell
// and class data, e.g. "95 wave 5 * +".
package formula

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
)

// Vars holds the named inputs available to an expression. Keys are matched
// case-insensitively against expression tokens.
type Vars map[string]float64

// Standard variable names.
const (
	VarWave  = "wave"
	VarPower = "power"
	VarBase  = "base"
)

var (
	ErrDivisionByZero = errors.New("division by zero")
	ErrModuloByZero   = errors.New("modulo by zero")
	ErrStackUnderflow = errors.New("operator needs two operands")
	ErrUnknownToken   = errors.New("unknown token")
	ErrUnresolved     = errors.New("did not resolve to a single value")
	ErrNonFinite      = errors.New("value is not a finite number")
	ErrNotInteger     = errors.New("fractional literal in integer formula")
	ErrOutOfRange     = errors.New("result does not fit in an int")
)

// Error reports a malformed expression or an arithmetic fault while
// evaluating one. It always carries the offending expression.
type Error struct {
	Expr  string
	Token string
	Err   error
}

func (e *Error) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("formula %q: %v at %q", e.Expr, e.Err, e.Token)
	}
	return fmt.Sprintf("formula %q: %v", e.Expr, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// EvaluateInt evaluates expr with integer semantics. Variables are floored,
// literals must be whole numbers and "/" floors the quotient.
func EvaluateInt(expr string, vars Vars) (int, error) {
	v, err := evaluate(expr, vars, true)
	if err != nil {
		return 0, err
	}
	if v < math.MinInt64 || v >= math.MaxInt64 {
		return 0, &Error{Expr: expr, Err: ErrOutOfRange}
	}
	return int(v), nil
}

// EvaluateFloat evaluates expr with float semantics.
func EvaluateFloat(expr string, vars Vars) (float64, error) {
	return evaluate(expr, vars, false)
}

func evaluate(expr string, vars Vars, integer bool) (float64, error) {
	tokens := strings.Fields(expr)
	if len(tokens) == 0 {
		if base, ok := lookup(vars, VarBase); ok {
			if !finite(base) {
				return 0, &Error{Expr: expr, Token: VarBase, Err: ErrNonFinite}
			}
			return normalize(base, integer), nil
		}
		slog.Warn("empty formula with no base value, using 0")
		return 0, nil
	}

	stack := make([]float64, 0, len(tokens))
	for _, tok := range tokens {
		if n, err := strconv.ParseFloat(tok, 64); err == nil {
			if !finite(n) {
				return 0, &Error{Expr: expr, Token: tok, Err: ErrNonFinite}
			}
			if integer && n != math.Trunc(n) {
				return 0, &Error{Expr: expr, Token: tok, Err: ErrNotInteger}
			}
			stack = append(stack, n)
			continue
		}
		if v, ok := lookup(vars, tok); ok {
			if !finite(v) {
				return 0, &Error{Expr: expr, Token: tok, Err: ErrNonFinite}
			}
			stack = append(stack, normalize(v, integer))
			continue
		}
		if !isOperator(tok) {
			return 0, &Error{Expr: expr, Token: tok, Err: ErrUnknownToken}
		}
		if len(stack) < 2 {
			return 0, &Error{Expr: expr, Token: tok, Err: ErrStackUnderflow}
		}

		operand2 := stack[len(stack)-1]
		operand1 := stack[len(stack)-2]
		stack = stack[:len(stack)-2]

		result, err := apply(tok, operand1, operand2, integer)
		if err != nil {
			return 0, &Error{Expr: expr, Token: tok, Err: err}
		}
		if !finite(result) {
			return 0, &Error{Expr: expr, Token: tok, Err: ErrNonFinite}
		}
		stack = append(stack, result)
	}

	if len(stack) != 1 {
		return 0, &Error{Expr: expr, Err: ErrUnresolved}
	}
	return stack[0], nil
}

func isOperator(tok string) bool {
	switch tok {
	case "+", "-", "*", "/", "%":
		return true
	}
	return false
}

func apply(op string, a, b float64, integer bool) (float64, error) {
	switch op {
	case "+":
		return a + b, nil
	case "-":
		return a - b, nil
	case "*":
		return a * b, nil
	case "/":
		if b == 0 {
			return 0, ErrDivisionByZero
		}
		if integer {
			return math.Floor(a / b), nil
		}
		return a / b, nil
	case "%":
		if b == 0 {
			return 0, ErrModuloByZero
		}
		return math.Mod(a, b), nil
	}
	return 0, ErrUnknownToken
}

func normalize(v float64, integer bool) float64 {
	if integer {
		return math.Floor(v)
	}
	return v
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func lookup(vars Vars, name string) (float64, bool) {
	if v, ok := vars[name]; ok {
		return v, true
	}
	for k, v := range vars {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return 0, false
}
