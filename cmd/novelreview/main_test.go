package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the CLI with an empty config file and a temporary archive.
// Texts below the prefilter minimum never reach a model, so no keys are
// needed.
func execute(t *testing.T, dir string, stdin string, args ...string) (string, error) {
	t.Helper()
	for _, key := range []string{"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GOOGLE_API_KEY"} {
		t.Setenv(key, "")
	}
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("log:\n  level: error\n"), 0o644))

	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", cfgPath, "--db", filepath.Join(dir, "runs.db")}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestGraph(t *testing.T) {
	out, err := execute(t, t.TempDir(), "", "graph")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "graph TD\n"))
	assert.Contains(t, out, "text_type -.->|unknown| __end__([end])")
	assert.Contains(t, out, "character_cards --> __end__([end])")
}

func TestAnalyze_ShortTextJSON(t *testing.T) {
	out, err := execute(t, t.TempDir(), "", "analyze", "--text", "Too short.", "--format", "json")
	require.NoError(t, err)

	var doc struct {
		Source string `json:"source"`
		Status string `json:"status"`
		State  struct {
			TextType struct {
				Type string `json:"type"`
			} `json:"text_type"`
		} `json:"state"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "text", doc.Source)
	assert.Equal(t, "stopped", doc.Status)
	assert.Equal(t, "unknown", doc.State.TextType.Type)
}

func TestAnalyze_Files(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.md")
	require.NoError(t, os.WriteFile(a, []byte("First note."), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("Second note."), 0o644))

	out, err := execute(t, dir, "", "analyze", a, b)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "# Manuscript analysis"))
	assert.Less(t, strings.Index(out, "Source: "+a), strings.Index(out, "Source: "+b))
}

func TestAnalyze_Stdin(t *testing.T) {
	out, err := execute(t, t.TempDir(), "A note from stdin.", "analyze")
	require.NoError(t, err)
	assert.Contains(t, out, "- Source: stdin")
}

func TestAnalyze_Errors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"bad format", []string{"analyze", "--text", "x", "--format", "html"}, "unsupported format"},
		{"text with files", []string{"analyze", "--text", "x", "a.txt"}, "cannot be combined"},
		{"unsupported file", []string{"analyze", filepath.Join(dir, "notes.odt")}, "unsupported"},
		{"blank text", []string{"analyze", "--text", "   "}, "empty input"},
		{"pdf to stdout", []string{"analyze", "--text", "x", "--format", "pdf"}, "requires --output"},
		{"unknown stage", []string{"analyze", "--text", "x", "--only", "genre,tone"}, `unknown stage "tone"`},
		{"from without only", []string{"analyze", "--from", "abc"}, "--from requires --only"},
		{"from with text", []string{"analyze", "--from", "abc", "--only", "genre", "--text", "x"}, "cannot be combined"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, dir, "", tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestHistoryAndShow(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, dir, "", "history")
	require.NoError(t, err)
	assert.Equal(t, "No archived runs.\n", out)

	_, err = execute(t, dir, "", "analyze", "--text", "Archive me.", "--save", "--format", "json")
	require.NoError(t, err)

	out, err = execute(t, dir, "", "history")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	fields := strings.Fields(lines[1])
	id := fields[0]
	assert.Contains(t, lines[1], "stopped")
	assert.Contains(t, lines[1], "unknown")

	out, err = execute(t, dir, "", "show", id)
	require.NoError(t, err)
	assert.Contains(t, out, "- Source: text")
	assert.Contains(t, out, "- Status: stopped")

	_, err = execute(t, dir, "", "show", "missing-id")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("NOVELREVIEW_PROVIDER", "mystery")
	_, err := execute(t, dir, "", "graph")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation failed")
}

func TestAnalyze_OnlyStages(t *testing.T) {
	dir := t.TempDir()

	// The classification prefilter answers short texts without a model.
	out, err := execute(t, dir, "", "analyze", "--text", "Too short.", "--only", "text_type", "--format", "json")
	require.NoError(t, err)
	var doc struct {
		Status string `json:"status"`
		State  struct {
			TextType *struct {
				Type string `json:"type"`
			} `json:"text_type"`
			Genre  json.RawMessage `json:"genre"`
			Errors []struct {
				Node string `json:"node"`
			} `json:"errors"`
		} `json:"state"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.NotNil(t, doc.State.TextType)
	assert.Equal(t, "unknown", doc.State.TextType.Type)
	assert.Equal(t, "null", string(doc.State.Genre))

	// Without an API key, evaluation and its genre prerequisite both fail
	// and are recorded in the state.
	out, err = execute(t, dir, "", "analyze", "--text", "Too short.", "--only", "evaluation", "--format", "json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "completed_with_errors", doc.Status)
	require.Len(t, doc.State.Errors, 2)
	assert.Equal(t, "genre", doc.State.Errors[0].Node)
	assert.Equal(t, "evaluation", doc.State.Errors[1].Node)
}

func TestAnalyze_OnlyFromArchive(t *testing.T) {
	dir := t.TempDir()

	_, err := execute(t, dir, "", "analyze", "--text", "Archive me.", "--save", "--format", "json")
	require.NoError(t, err)
	out, err := execute(t, dir, "", "history")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	id := strings.Fields(lines[1])[0]

	out, err = execute(t, dir, "", "analyze", "--from", id, "--only", "style")
	require.NoError(t, err)
	assert.Contains(t, out, "- Source: text")
	assert.Contains(t, out, "## Text type\n\nunknown")
	assert.Contains(t, out, "## Errors\n\n- style: ")
	assert.Contains(t, out, "no API key configured")

	_, err = execute(t, dir, "", "analyze", "--from", "missing-id", "--only", "style")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestAnalyze_PDFOutput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.pdf")

	out, err := execute(t, dir, "", "analyze", "--text", "Too short.", "--format", "pdf", "--output", path)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))

	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(a, []byte("One."), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("Two."), 0o644))
	_, err = execute(t, dir, "", "analyze", a, b, "--format", "pdf", "--output", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "single manuscript")
}

func TestShow_Output(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, dir, "", "analyze", "--text", "Archive me.", "--save", "--format", "json")
	require.NoError(t, err)
	out, err := execute(t, dir, "", "history")
	require.NoError(t, err)
	id := strings.Fields(strings.Split(strings.TrimSpace(out), "\n")[1])[0]

	path := filepath.Join(dir, "run.md")
	out, err = execute(t, dir, "", "show", id, "--output", path)
	require.NoError(t, err)
	assert.Empty(t, out)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "- Status: stopped")
}
