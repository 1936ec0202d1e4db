// Package mcpserver exposes the manuscript pipeline as an MCP tool.
//
// The server registers a single tool, analyze_manuscript, which runs the
// full analysis graph over the supplied text and returns the report as JSON
// or Markdown. It is normally served over stdio:
//
//	if err := mcpserver.ServeStdio(p); err != nil {
//	    log.Fatal(err)
//	}
package mcpserver

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/spetersoncode/novelreview"
	"github.com/spetersoncode/novelreview/ingest"
	"github.com/spetersoncode/novelreview/pipeline"
	"github.com/spetersoncode/novelreview/report"
	"github.com/spetersoncode/novelreview/store"
)

// ToolName is the name of the analysis tool.
const ToolName = "analyze_manuscript"

const (
	formatJSON     = "json"
	formatMarkdown = "markdown"
)

// Runner runs the manuscript pipeline. *pipeline.Pipeline implements it.
type Runner interface {
	Run(ctx context.Context, text string) (pipeline.AnalysisState, error)
}

// Option configures the server.
type Option func(*config)

type config struct {
	name    string
	version string
	store   store.Store
	logger  *slog.Logger
}

// WithName sets the server name reported to MCP clients.
func WithName(name string) Option {
	return func(c *config) {
		c.name = name
	}
}

// WithVersion sets the server version reported to MCP clients.
func WithVersion(version string) Option {
	return func(c *config) {
		c.version = version
	}
}

// WithStore archives every tool run in st.
func WithStore(st store.Store) Option {
	return func(c *config) {
		c.store = st
	}
}

// WithLogger sets the logger. Stdio servers must not log to stdout.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// NewServer creates an MCP server exposing analyze_manuscript over runner.
func NewServer(runner Runner, opts ...Option) *server.MCPServer {
	cfg := &config{
		name:    "novelreview",
		version: "1.0.0",
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	s := server.NewMCPServer(
		cfg.name,
		cfg.version,
		server.WithToolCapabilities(false),
	)
	s.AddTool(analyzeTool(), analyzeHandler(runner, cfg))
	return s
}

func analyzeTool() mcp.Tool {
	return mcp.NewTool(ToolName,
		mcp.WithDescription("Analyze a manuscript excerpt: text type, summary, genre, "+
			"quality evaluation with a score gate, style, characters and character cards."),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Manuscript text. Input beyond 30000 characters is truncated."),
		),
		mcp.WithString("format",
			mcp.Description("Report format"),
			mcp.Enum(formatJSON, formatMarkdown),
			mcp.DefaultString(formatJSON),
		),
		mcp.WithString("source",
			mcp.Description("Optional label recorded with the archived run"),
		),
	)
}

func analyzeHandler(runner Runner, cfg *config) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := req.RequireString("text")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		text = ingest.FromText(text)
		if text == "" {
			return mcp.NewToolResultError(novelreview.ErrEmptyInput.Error()), nil
		}
		format := req.GetString("format", formatJSON)
		if format != formatJSON && format != formatMarkdown {
			return mcp.NewToolResultError(fmt.Sprintf("unsupported format %q", format)), nil
		}
		source := req.GetString("source", "mcp")

		start := time.Now()
		state, err := runner.Run(ctx, text)
		elapsed := time.Since(start)
		if err != nil {
			cfg.logger.ErrorContext(ctx, "pipeline failed", "error", err)
			return mcp.NewToolResultError(err.Error()), nil
		}

		if cfg.store != nil {
			rec := store.NewRecord(source, state, elapsed, novelreview.Usage{})
			if err := cfg.store.Save(ctx, rec); err != nil {
				cfg.logger.ErrorContext(ctx, "archiving run failed", "run_id", rec.ID, "error", err)
			}
		}

		var buf bytes.Buffer
		ropts := []report.Option{report.WithSource(source), report.WithDuration(elapsed)}
		if format == formatMarkdown {
			err = report.Markdown(&buf, state, ropts...)
		} else {
			err = report.JSON(&buf, state, ropts...)
		}
		if err != nil {
			return nil, fmt.Errorf("rendering report: %w", err)
		}
		cfg.logger.InfoContext(ctx, "manuscript analyzed",
			"status", report.Status(state),
			"duration_ms", elapsed.Milliseconds(),
		)
		return mcp.NewToolResultText(buf.String()), nil
	}
}

// ServeStdio serves the analysis tool over stdin/stdout until the client
// disconnects.
func ServeStdio(runner Runner, opts ...Option) error {
	return server.ServeStdio(NewServer(runner, opts...))
}
