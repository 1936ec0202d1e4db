package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spetersoncode/novelreview/pipeline"
	"github.com/spetersoncode/novelreview/store"
)

// fixedRunner returns a canned state, or err.
type fixedRunner struct {
	err     error
	gotText string
}

func (r *fixedRunner) Run(ctx context.Context, text string) (pipeline.AnalysisState, error) {
	r.gotText = text
	state := pipeline.NewState(text)
	if r.err != nil {
		return state, r.err
	}
	state.TextType = &pipeline.TextType{Type: pipeline.KindUnknown, Reason: "too short"}
	return state, nil
}

func connect(t *testing.T, s *server.MCPServer) *client.Client {
	t.Helper()
	c, err := client.NewInProcessClient(s)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, c.Start(ctx))
	t.Cleanup(func() { c.Close() })

	_, err = c.Initialize(ctx, mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			Capabilities:    mcp.ClientCapabilities{},
			ClientInfo: mcp.Implementation{
				Name:    "test-client",
				Version: "1.0.0",
			},
		},
	})
	require.NoError(t, err)
	return c
}

func call(t *testing.T, c *client.Client, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	result, err := c.CallTool(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      ToolName,
			Arguments: args,
		},
	})
	require.NoError(t, err)
	return result
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, result.Content, 1)
	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)
	return text.Text
}

func TestListTools(t *testing.T) {
	c := connect(t, NewServer(&fixedRunner{}, WithName("test"), WithVersion("0.1.0")))

	tools, err := c.ListTools(context.Background(), mcp.ListToolsRequest{})
	require.NoError(t, err)
	require.Len(t, tools.Tools, 1)

	tool := tools.Tools[0]
	assert.Equal(t, ToolName, tool.Name)
	assert.Contains(t, tool.InputSchema.Properties, "text")
	assert.Contains(t, tool.InputSchema.Properties, "format")
	assert.Equal(t, []string{"text"}, tool.InputSchema.Required)
}

func TestAnalyzeManuscript(t *testing.T) {
	t.Run("json report", func(t *testing.T) {
		runner := &fixedRunner{}
		st := store.NewMemory()
		c := connect(t, NewServer(runner, WithStore(st)))

		result := call(t, c, map[string]any{"text": "  A short note.  "})
		require.False(t, result.IsError, resultText(t, result))
		assert.Equal(t, "A short note.", runner.gotText)

		var doc struct {
			Source string                 `json:"source"`
			Status string                 `json:"status"`
			State  pipeline.AnalysisState `json:"state"`
		}
		require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &doc))
		assert.Equal(t, "mcp", doc.Source)
		assert.Equal(t, "stopped", doc.Status)
		require.NotNil(t, doc.State.TextType)
		assert.Equal(t, pipeline.KindUnknown, doc.State.TextType.Type)

		runs, err := st.List(context.Background(), 0)
		require.NoError(t, err)
		require.Len(t, runs, 1)
		assert.Equal(t, "mcp", runs[0].Source)
	})

	t.Run("markdown report", func(t *testing.T) {
		c := connect(t, NewServer(&fixedRunner{}))

		result := call(t, c, map[string]any{
			"text":   "A short note.",
			"format": "markdown",
			"source": "chapter-1.txt",
		})
		require.False(t, result.IsError)
		text := resultText(t, result)
		assert.Contains(t, text, "# Manuscript analysis")
		assert.Contains(t, text, "- Source: chapter-1.txt")
	})
}

func TestAnalyzeManuscript_Errors(t *testing.T) {
	tests := []struct {
		name   string
		runner *fixedRunner
		args   map[string]any
		want   string
	}{
		{"missing text", &fixedRunner{}, map[string]any{}, "text"},
		{"blank text", &fixedRunner{}, map[string]any{"text": " \n\t"}, "empty input"},
		{"bad format", &fixedRunner{}, map[string]any{"text": "x", "format": "pdf"}, "unsupported format"},
		{"runner failure", &fixedRunner{err: errors.New("graph defect")}, map[string]any{"text": "x"}, "graph defect"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := connect(t, NewServer(tt.runner))
			result := call(t, c, tt.args)
			assert.True(t, result.IsError)
			assert.Contains(t, resultText(t, result), tt.want)
		})
	}
}
