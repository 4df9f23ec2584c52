package formula

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate_Arithmetic(t *testing.T) {
	cases := []struct {
		expr     string
		params   map[string]any
		expected float64
	}{
		{"2 + 2 * 2", nil, 6},
		{"(2 + 2) * 2", nil, 8},
		{"10 / 4", nil, 2.5},
		{"-height + 10", map[string]any{"height": 3.0}, 7},
		{"height * 1500 + width * 500", map[string]any{"height": 3.0, "width": 1.0}, 5000},
		{"length * width / 10000", map[string]any{"length": 200.0, "width": 100.0}, 2},
	}

	for _, tc := range cases {
		v, err := Evaluate(tc.expr, tc.params)
		require.NoError(t, err, tc.expr)
		assert.Equal(t, tc.expected, v, tc.expr)
	}
}

func TestEvaluate_Ternary(t *testing.T) {
	v, err := Evaluate("height > 2 ? 100 : 50", map[string]any{"height": 3.0})
	require.NoError(t, err)
	assert.Equal(t, 100.0, v)

	v, err = Evaluate("height > 2 ? 100 : 50", map[string]any{"height": 1.0})
	require.NoError(t, err)
	assert.Equal(t, 50.0, v)

	// невыбранная ветка не вычисляется
	v, err = Evaluate("w > 0 ? x / w : 0", map[string]any{"w": 0.0, "x": 5.0})
	require.NoError(t, err)
	assert.Equal(t, 0.0, v)
}

func TestEvaluate_StringComparison(t *testing.T) {
	// сравнение с кодом опции select-параметра
	params := map[string]any{"frame": "alu", "area": 2.0}

	v, err := Evaluate("frame === 'alu' ? area * 150 : area * 90", params)
	require.NoError(t, err)
	assert.Equal(t, 300.0, v)

	params["frame"] = "wood"
	v, err = Evaluate("frame === 'alu' ? area * 150 : area * 90", params)
	require.NoError(t, err)
	assert.Equal(t, 180.0, v)

	v, err = Evaluate("frame !== 'alu' ? 1 : 0", params)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)
}

func TestEvaluate_Deterministic(t *testing.T) {
	params := map[string]any{"height": 2.7, "width": 1.3}
	expr := "height * 1500 + width * 500 + (height > 2 ? 99 : 0)"

	first, err := Evaluate(expr, params)
	require.NoError(t, err)
	second, err := Evaluate(expr, params)
	require.NoError(t, err)

	// бит в бит, не "примерно"
	assert.Equal(t, first, second)
}

func TestEvaluate_UnknownIdentifier(t *testing.T) {
	_, err := Evaluate("height * 2", map[string]any{"width": 1.0})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFormulaEvaluation)
}

func TestEvaluate_Sandbox(t *testing.T) {
	// всё, что не арифметика — отказ на разборе, ничего не исполняется
	payloads := []string{
		"1; require('fs')",
		"process.exit()",
		"__import__('os').system('ls')",
		"a = 5",
		"height = 2",
		"console.log(1)",
		"`rm -rf`",
		"{}",
		"[1,2]",
	}

	for _, expr := range payloads {
		_, err := Evaluate(expr, map[string]any{"height": 1.0})
		assert.ErrorIs(t, err, ErrFormulaEvaluation, expr)
	}
}

func TestEvaluate_Empty(t *testing.T) {
	_, err := Evaluate("", nil)
	assert.ErrorIs(t, err, ErrFormulaEvaluation)

	_, err = Evaluate("   ", nil)
	assert.ErrorIs(t, err, ErrFormulaEvaluation)
}

func TestEvaluate_DivisionByZero(t *testing.T) {
	_, err := Evaluate("10 / 0", nil)
	assert.ErrorIs(t, err, ErrFormulaEvaluation)
}

func TestEvaluate_BoolResultRejected(t *testing.T) {
	// числовая формула не может вернуть условие
	_, err := Evaluate("height > 2", map[string]any{"height": 3.0})
	assert.ErrorIs(t, err, ErrFormulaEvaluation)
}

func TestEvaluateCondition(t *testing.T) {
	ok, err := EvaluateCondition("height > 2 && width < 5", map[string]any{"height": 3.0, "width": 1.0})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = EvaluateCondition("frame === 'premium'", map[string]any{"frame": "base"})
	require.NoError(t, err)
	assert.False(t, ok)

	// числовой результат — "не ноль"
	ok, err = EvaluateCondition("count", map[string]any{"count": 0.0})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvaluate_RussianIdentifiers(t *testing.T) {
	v, err := Evaluate("высота * 2", map[string]any{"высота": 4.0})
	require.NoError(t, err)
	assert.Equal(t, 8.0, v)
}
