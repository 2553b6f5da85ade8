//nolint:revive // exported
package expression

import (
	"errors"
	"fmt"
)

var ErrEmptyExpression = errors.New("empty expression")

// ExpressionError reports a condition that failed to compile.
type ExpressionError struct {
	Expression string
	Line       int
	Column     int
	Cause      error
}

func (e *ExpressionError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("expression %q failed to compile at line %d column %d: %v", e.Expression, e.Line, e.Column, e.Cause)
	}
	return fmt.Sprintf("expression %q failed to compile: %v", e.Expression, e.Cause)
}

func (e *ExpressionError) Unwrap() error {
	return e.Cause
}
