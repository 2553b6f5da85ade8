package expression

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/the-dev-tools/dev-tools/packages/scanflow/pkg/errmap"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "x == 1", want: "x == 1"},
		{name: "template", in: "{{ status }} == 200", want: "var_status == 200"},
		{name: "path", in: "{{scan.ports[0]}} > 0", want: "var_scan_ports_0_ > 0"},
		{name: "two refs", in: "{{a}} && {{ b }}", want: "var_a && var_b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestReferences(t *testing.T) {
	refs := References("{{ a.b }} == 1 || {{a.b}} == 2 || {{ c }}")
	assert.Equal(t, []string{"a.b", "c"}, refs)
	assert.Empty(t, References("x == 1"))
}

func TestCheck(t *testing.T) {
	require.NoError(t, Check("x == 1"))
	require.NoError(t, Check("{{ open_ports }} > 0 && len(hosts) > 2"))
	require.NoError(t, Check(`status in ["up", "filtered"]`))

	err := Check("x ==")
	require.Error(t, err)
	assert.Equal(t, errmap.CodeExpressionSyntax, errmap.CodeOf(err))

	var exprErr *ExpressionError
	require.True(t, errors.As(err, &exprErr))
	assert.Equal(t, "x ==", exprErr.Expression)

	err = Check("   ")
	require.ErrorIs(t, err, ErrEmptyExpression)
}

func TestCompile_Cached(t *testing.T) {
	p1, err := Compile("a > 1")
	require.NoError(t, err)
	p2, err := Compile("a > 1")
	require.NoError(t, err)
	assert.Same(t, p1, p2)
}
