package condition

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAndEvaluate(t *testing.T) {
	type classified struct {
		Kind  string
		Score float64
	}
	variables := map[string]interface{}{
		"classify": &classified{Kind: "question", Score: 0.9},
		"retries":  2,
		"trigger":  map[string]interface{}{"text": "hello", "urgent": true},
	}

	testCases := []struct {
		name   string
		expr   string
		expect bool
	}{
		{"string equality", `classify.kind == 'question'`, true},
		{"string inequality", `classify.kind != 'greeting'`, true},
		{"numeric compare", `classify.score > 0.5`, true},
		{"numeric compare false", `retries >= 3`, false},
		{"and", `classify.kind == 'question' && retries < 3`, true},
		{"or", `retries > 10 || trigger.urgent`, true},
		{"not", `!trigger.urgent`, false},
		{"parens", `(retries > 10 || retries < 3) && classify.score >= 0.9`, true},
		{"bare selector truthy", `trigger.text`, true},
		{"missing path is falsy", `trigger.missing`, false},
		{"nil literal", `trigger.missing == null`, true},
		{"bool literal", `trigger.urgent == true`, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			expr, err := Parse(tc.expr)
			require.NoError(t, err, tc.expr)
			actual, err := expr.Evaluate(variables)
			require.NoError(t, err, tc.expr)
			require.Equal(t, tc.expect, actual, tc.expr)
		})
	}
}

func TestParseErrors(t *testing.T) {
	for _, expr := range []string{
		`classify.kind ==`,
		`&& retries < 3`,
		`(retries > 1`,
		`retries > 1 retries`,
	} {
		_, err := Parse(expr)
		require.Error(t, err, expr)
	}
}

func TestExprSource(t *testing.T) {
	expr, err := Parse(`retries < 3`)
	require.NoError(t, err)
	require.Equal(t, `retries < 3`, expr.Source())
}
