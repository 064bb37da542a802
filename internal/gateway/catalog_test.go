package gateway

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazyhaar/sqlitemcp/internal/insight"
)

func TestResources(t *testing.T) {
	g := New(nil, nil)
	res := g.Resources()
	require.Len(t, res, 1)
	assert.Equal(t, "memo://insights", res[0].URI)
	assert.Equal(t, "Business Insights Memo", res[0].Name)
	assert.Equal(t, "text/plain", res[0].MIMEType)
}

func TestReadResource_reflectsAppends(t *testing.T) {
	store := insight.NewStore()
	g := New(nil, store)

	got, err := g.ReadResource("memo://insights")
	require.NoError(t, err)
	assert.Equal(t, "No business insights have been discovered yet.", got)

	store.Append("Revenue doubled")
	got, err = g.ReadResource("memo://insights")
	require.NoError(t, err)
	assert.Equal(t, store.Render(), got)
	assert.Contains(t, got, "Revenue doubled")
}

func TestReadResource_errors(t *testing.T) {
	g := New(nil, nil)

	tests := []struct {
		uri  string
		kind DispatchKind
		msg  string
	}{
		{"http://x", UnsupportedScheme, "Unsupported URI scheme: http"},
		{"http://example.com", UnsupportedScheme, "Unsupported URI scheme: http"},
		{"memo://other", UnknownResourcePath, "Unknown resource path: other"},
		{"memo://invalid", UnknownResourcePath, "Unknown resource path: invalid"},
		{"memo://insights/extra", UnknownResourcePath, "Unknown resource path: insights/extra"},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			_, err := g.ReadResource(tt.uri)
			var dErr *DispatchError
			require.True(t, errors.As(err, &dErr))
			assert.Equal(t, tt.kind, dErr.Kind)
			assert.Equal(t, tt.msg, dErr.Error())
		})
	}
}

func TestPrompts(t *testing.T) {
	g := New(nil, nil)
	prompts := g.Prompts()
	require.Len(t, prompts, 1)
	assert.Equal(t, "mcp-demo", prompts[0].Name)
	require.Len(t, prompts[0].Arguments, 1)
	assert.Equal(t, "topic", prompts[0].Arguments[0].Name)
	assert.True(t, prompts[0].Arguments[0].Required)
}

func TestGetPrompt(t *testing.T) {
	g := New(nil, nil)

	res, err := g.GetPrompt("mcp-demo", map[string]string{"topic": "retail"})
	require.NoError(t, err)
	assert.Equal(t, "Demo template for retail", res.Description)
	require.Len(t, res.Messages, 1)
	assert.Equal(t, "user", res.Messages[0].Role)
	assert.Contains(t, res.Messages[0].Text, "retail")
	assert.NotContains(t, res.Messages[0].Text, "{topic}")

	// The template walks through the tools in order.
	text := res.Messages[0].Text
	order := []string{"list_tables to", "describe_table on", "ask the user", "read_query.", "append_insight with", "read memo://insights"}
	last := -1
	for _, step := range order {
		i := strings.Index(text, step)
		require.NotEqual(t, -1, i, step)
		assert.Greater(t, i, last, step)
		last = i
	}
}

func TestGetPrompt_errors(t *testing.T) {
	g := New(nil, nil)

	_, err := g.GetPrompt("unknown", map[string]string{"topic": "retail"})
	var dErr *DispatchError
	require.True(t, errors.As(err, &dErr))
	assert.Equal(t, UnknownPrompt, dErr.Kind)
	assert.Equal(t, "Unknown prompt: unknown", err.Error())

	for _, args := range []map[string]string{nil, {}, {"not_topic": "retail"}} {
		_, err = g.GetPrompt("mcp-demo", args)
		var vErr *ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, "Missing required argument: topic", vErr.Msg)
	}
}

func TestHasKeywordPrefix(t *testing.T) {
	assert.True(t, hasKeywordPrefix("SELECT 1", "SELECT"))
	assert.True(t, hasKeywordPrefix("\n select", "SELECT"))
	assert.True(t, hasKeywordPrefix("CREATE TABLE x (id INT)", "CREATE TABLE"))
	assert.False(t, hasKeywordPrefix("SEL", "SELECT"))
	assert.False(t, hasKeywordPrefix("-- c\nSELECT 1", "SELECT"))
	// Unicode case mapping: U+017F upper-cases to S.
	assert.True(t, hasKeywordPrefix("\u017felect 1", "SELECT"))
	assert.False(t, hasKeywordPrefix("CREATE\tTABLE x (id INT)", "CREATE TABLE"))
	// Lexical only: anything after the keyword is not inspected.
	assert.True(t, hasKeywordPrefix("SELECT 1; DROP TABLE t", "SELECT"))
}
