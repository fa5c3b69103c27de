package compose

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Interpolation Tests
// =============================================================================

func TestInterpolate_NoSubstitution(t *testing.T) {
	out, err := Interpolate("plain text with no variables", nil)
	require.NoError(t, err)
	assert.Equal(t, "plain text with no variables", out)
}

func TestInterpolate_EscapedDollar(t *testing.T) {
	out, err := Interpolate("$$", map[string]string{"X": "1"})
	require.NoError(t, err)
	assert.Equal(t, "$", out)

	out, err = Interpolate("cost: $$5", nil)
	require.NoError(t, err)
	assert.Equal(t, "cost: $5", out)
}

func TestInterpolate_SimpleVariable(t *testing.T) {
	env := map[string]string{"HOST": "db.internal"}

	out, err := Interpolate("${HOST}", env)
	require.NoError(t, err)
	assert.Equal(t, "db.internal", out)

	out, err = Interpolate("tcp://${HOST}:5432", env)
	require.NoError(t, err)
	assert.Equal(t, "tcp://db.internal:5432", out)
}

func TestInterpolate_UnsetVariableIsEmpty(t *testing.T) {
	out, err := Interpolate("${MISSING}", map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, "", out)
}

func TestInterpolate_DefaultModifiers(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		env  map[string]string
		want string
	}{
		{"colon-dash unset", "${VAR:-fallback}", nil, "fallback"},
		{"colon-dash empty", "${VAR:-fallback}", map[string]string{"VAR": ""}, "fallback"},
		{"colon-dash set", "${VAR:-fallback}", map[string]string{"VAR": "v"}, "v"},
		{"dash unset", "${VAR-fallback}", nil, "fallback"},
		{"dash empty keeps empty", "${VAR-fallback}", map[string]string{"VAR": ""}, ""},
		{"dash set", "${VAR-fallback}", map[string]string{"VAR": "v"}, "v"},
		{"colon-plus unset", "${VAR:+alt}", nil, ""},
		{"colon-plus empty", "${VAR:+alt}", map[string]string{"VAR": ""}, ""},
		{"colon-plus set", "${VAR:+alt}", map[string]string{"VAR": "v"}, "alt"},
		{"plus unset", "${VAR+alt}", nil, ""},
		{"plus empty", "${VAR+alt}", map[string]string{"VAR": ""}, "alt"},
		{"plus set", "${VAR+alt}", map[string]string{"VAR": "v"}, "alt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Interpolate(tt.raw, tt.env)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestInterpolate_DefaultContainingColon(t *testing.T) {
	out, err := Interpolate("${URL:-http://localhost:8080}", nil)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", out)
}

func TestInterpolate_LiteralDollar(t *testing.T) {
	out, err := Interpolate("price is $5", nil)
	require.NoError(t, err)
	assert.Equal(t, "price is $5", out)
}

func TestInterpolate_TrailingDollar(t *testing.T) {
	out, err := Interpolate("ends with $", nil)
	require.NoError(t, err)
	assert.Equal(t, "ends with $", out)
}

func TestInterpolate_Unterminated(t *testing.T) {
	_, err := Interpolate("${VAR", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnterminatedVariable)
}

func TestInterpolate_EmptyName(t *testing.T) {
	_, err := Interpolate("${}", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidVariableSyntax)

	_, err = Interpolate("${:-default}", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidVariableSyntax)
}

func TestInterpolate_MultipleExpressions(t *testing.T) {
	env := map[string]string{"A": "1", "B": "2"}
	out, err := Interpolate("${A}-${B}-${C:-3}", env)
	require.NoError(t, err)
	assert.Equal(t, "1-2-3", out)
}
