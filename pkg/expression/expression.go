//nolint:revive // exported
package expression

import (
	"errors"
	"regexp"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/file"
	"github.com/expr-lang/expr/vm"

	"github.com/the-dev-tools/dev-tools/packages/scanflow/pkg/errmap"
)

// templateRef matches `{{ path }}` references inside a condition.
var templateRef = regexp.MustCompile(`\{\{\s*([^{}]*?)\s*\}\}`)

var programCache sync.Map // map[string]*vm.Program

// Normalize rewrites every `{{ path }}` reference into a plain identifier so
// the condition can be compiled. Characters that cannot appear in an
// identifier become underscores.
func Normalize(condition string) string {
	return templateRef.ReplaceAllStringFunc(condition, func(m string) string {
		inner := templateRef.FindStringSubmatch(m)[1]
		return identifier(inner)
	})
}

func identifier(path string) string {
	var b strings.Builder
	b.WriteString("var_")
	for _, r := range path {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// References lists the `{{ path }}` references of a condition in order of
// appearance, without duplicates.
func References(condition string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range templateRef.FindAllStringSubmatch(condition, -1) {
		ref := m[1]
		if ref == "" || seen[ref] {
			continue
		}
		seen[ref] = true
		out = append(out, ref)
	}
	return out
}

// Check compiles condition with undefined variables allowed. It returns
// nil when the condition is syntactically valid.
func Check(condition string) error {
	_, err := Compile(condition)
	return err
}

// Compile returns the cached program for condition.
func Compile(condition string) (*vm.Program, error) {
	normalized := strings.TrimSpace(Normalize(condition))
	if normalized == "" {
		return nil, errmap.Wrap(errmap.CodeExpressionSyntax, "condition is empty", ErrEmptyExpression)
	}
	if cached, ok := programCache.Load(normalized); ok {
		return cached.(*vm.Program), nil
	}

	program, err := expr.Compile(normalized, expr.AllowUndefinedVariables(), expr.AsAny())
	if err != nil {
		return nil, wrapCompileError(condition, err)
	}
	programCache.Store(normalized, program)
	return program, nil
}

func wrapCompileError(condition string, err error) error {
	exprErr := &ExpressionError{Expression: condition, Cause: err}
	var fileErr *file.Error
	if errors.As(err, &fileErr) {
		exprErr.Line = fileErr.Line
		exprErr.Column = fileErr.Column + 1
		exprErr.Cause = errors.New(fileErr.Message)
	}
	return errmap.Wrap(errmap.CodeExpressionSyntax, "invalid condition", exprErr)
}
