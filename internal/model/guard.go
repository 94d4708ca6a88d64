package model

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// guardEnv is the expr-lang environment a guard runs in: the value of its key.
type guardEnv struct {
	Value int `expr:"value"`
}

// Guard is a compiled boolean expression over one key's value, e.g.
// "value >= 2" on AlertLevel. Guards let the catalog express threshold
// preconditions on scalar keys; plain preconditions compare by equality.
type Guard struct {
	Key        WorldKey
	Expression string
	program    *vm.Program
}

// CompileGuard compiles expression for key. The expression must be boolean.
func CompileGuard(key WorldKey, expression string) (*Guard, error) {
	if !key.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKey, uint8(key))
	}
	if expression == "" {
		return nil, fmt.Errorf("guard on %s: empty expression", key)
	}
	program, err := expr.Compile(expression, expr.Env(guardEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("guard on %s: compiling %q: %w", key, expression, err)
	}
	return &Guard{Key: key, Expression: expression, program: program}, nil
}

// Allows evaluates the guard against s. An undefined key or an evaluation
// error never allows.
func (g *Guard) Allows(s WorldState) bool {
	v, ok := s.Lookup(g.Key)
	if !ok || g.program == nil {
		return false
	}
	out, err := expr.Run(g.program, guardEnv{Value: int(v)})
	if err != nil {
		return false
	}
	b, _ := out.(bool)
	return b
}

func (g *Guard) String() string {
	return fmt.Sprintf("%s: %s", g.Key, g.Expression)
}
