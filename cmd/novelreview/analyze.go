package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/spetersoncode/novelreview"
	"github.com/spetersoncode/novelreview/ingest"
	"github.com/spetersoncode/novelreview/pipeline"
	"github.com/spetersoncode/novelreview/report"
	"github.com/spetersoncode/novelreview/store"
)

const (
	formatMarkdown = "markdown"
	formatJSON     = "json"
	formatPDF      = "pdf"
)

type manuscript struct {
	source string
	text   string

	// base is the archived state that --from resumes.
	base *pipeline.AnalysisState
}

type outcome struct {
	manuscript
	state   pipeline.AnalysisState
	elapsed time.Duration
}

func newAnalyzeCmd(a *app) *cobra.Command {
	var (
		text        string
		format      string
		output      string
		font        string
		only        string
		from        string
		save        bool
		concurrency int
	)
	cmd := &cobra.Command{
		Use:   "analyze [files...]",
		Short: "Analyze manuscripts from files, --text or stdin",
		Long: "Analyze one or more manuscripts. Supported files are .txt, .md, .docx and .pdf;\n" +
			"with no files and no --text the manuscript is read from stdin.\n\n" +
			"--only runs the listed stages without the graph's routing, for example\n" +
			"--only genre,evaluation. Combined with --from it reruns stages of an archived run.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format, output); err != nil {
				return err
			}
			var stages []string
			if only != "" {
				var err error
				if stages, err = pipeline.ParseStages(only); err != nil {
					return err
				}
			}

			var inputs []manuscript
			var err error
			if from != "" {
				if only == "" {
					return errors.New("--from requires --only")
				}
				if text != "" || len(args) > 0 {
					return errors.New("--from cannot be combined with --text or files")
				}
				inputs, err = a.resume(cmd, from)
			} else {
				inputs, err = gather(cmd, args, text)
			}
			if err != nil {
				return err
			}
			if format == formatPDF && len(inputs) > 1 {
				return errors.New("pdf output takes a single manuscript")
			}
			if concurrency < 1 {
				concurrency = a.cfg.Analysis.Concurrency
			}

			p, c, err := a.pipeline()
			if err != nil {
				return err
			}
			results, err := analyzeAll(cmd, p, inputs, concurrency, stages)
			if err != nil {
				return err
			}

			// Per-run usage is only attributable when runs did not overlap.
			var usage novelreview.Usage
			if len(results) == 1 {
				usage = c.Usage()
			}
			total := c.Usage()
			a.logger.Info("analysis finished",
				"manuscripts", len(results),
				"input_tokens", total.InputTokens,
				"output_tokens", total.OutputTokens,
			)

			if save {
				if err := a.archive(cmd, results, usage); err != nil {
					return err
				}
			}
			return writeOutput(cmd, output, func(w io.Writer) error {
				return render(w, results, format, usage, font)
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&text, "text", "", "Analyze this text instead of files")
	f.StringVarP(&format, "format", "f", formatMarkdown, "Output format: markdown, json or pdf")
	f.StringVarP(&output, "output", "o", "", "Write the report to this file instead of stdout (required for pdf)")
	f.StringVar(&font, "font", "", "UTF-8 TrueType font for pdf output, needed for Hangul text")
	f.StringVar(&only, "only", "", "Run only these comma-separated stages, e.g. genre,evaluation")
	f.StringVar(&from, "from", "", "Start --only stages from the state of this archived run")
	f.BoolVar(&save, "save", false, "Archive results in the run database")
	f.IntVarP(&concurrency, "concurrency", "c", 0, "Manuscripts analyzed in parallel (default from config)")
	return cmd
}

func checkFormat(format, output string) error {
	switch format {
	case formatMarkdown, formatJSON:
		return nil
	case formatPDF:
		if output == "" {
			return errors.New("--format pdf requires --output")
		}
		return nil
	default:
		return fmt.Errorf("unsupported format %q (want markdown, json or pdf)", format)
	}
}

// writeOutput runs fn against stdout, or against the file at path.
func writeOutput(cmd *cobra.Command, path string, fn func(io.Writer) error) (err error) {
	if path == "" {
		return fn(cmd.OutOrStdout())
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(f)
}

// resume loads an archived run as the starting state for --only.
func (a *app) resume(cmd *cobra.Command, id string) ([]manuscript, error) {
	st, err := a.openStore()
	if err != nil {
		return nil, err
	}
	defer st.Close()

	rec, err := st.Get(cmd.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("run %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	state := rec.State.Clone()
	return []manuscript{{source: rec.Source, text: state.Text, base: &state}}, nil
}

// gather loads every manuscript before any model call is made.
func gather(cmd *cobra.Command, files []string, text string) ([]manuscript, error) {
	if text != "" {
		if len(files) > 0 {
			return nil, fmt.Errorf("--text cannot be combined with files")
		}
	}
	var inputs []manuscript
	switch {
	case text != "":
		inputs = append(inputs, manuscript{source: "text", text: ingest.FromText(text)})
	case len(files) == 0:
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		inputs = append(inputs, manuscript{source: "stdin", text: ingest.FromText(string(data))})
	default:
		for _, path := range files {
			s, err := ingest.FromFile(path)
			if err != nil {
				return nil, err
			}
			inputs = append(inputs, manuscript{source: path, text: s})
		}
	}
	for _, in := range inputs {
		if strings.TrimSpace(in.text) == "" {
			return nil, fmt.Errorf("%s: %w", in.source, novelreview.ErrEmptyInput)
		}
	}
	return inputs, nil
}

// analyzeAll runs every manuscript through the full graph, or through
// stages only when any are given.
func analyzeAll(cmd *cobra.Command, p *pipeline.Pipeline, inputs []manuscript, limit int, stages []string) ([]outcome, error) {
	results := make([]outcome, len(inputs))
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(limit)
	for i, in := range inputs {
		g.Go(func() error {
			start := time.Now()
			var state pipeline.AnalysisState
			var err error
			if len(stages) > 0 {
				base := pipeline.NewState(in.text)
				if in.base != nil {
					base = *in.base
				}
				state, err = p.RunStages(ctx, base, stages...)
			} else {
				state, err = p.Run(ctx, in.text)
			}
			if err != nil {
				return fmt.Errorf("%s: %w", in.source, err)
			}
			results[i] = outcome{manuscript: in, state: state, elapsed: time.Since(start)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (a *app) archive(cmd *cobra.Command, results []outcome, usage novelreview.Usage) error {
	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	for _, r := range results {
		rec := store.NewRecord(r.source, r.state, r.elapsed, usage)
		if err := st.Save(cmd.Context(), rec); err != nil {
			return err
		}
		a.logger.Info("run archived", "id", rec.ID, "source", r.source, "status", rec.Status)
	}
	return nil
}

func render(w io.Writer, results []outcome, format string, usage novelreview.Usage, font string) error {
	for i, r := range results {
		opts := []report.Option{
			report.WithSource(r.source),
			report.WithDuration(r.elapsed),
			report.WithUsage(usage),
			report.WithFont(font),
		}
		if format == formatMarkdown && i > 0 {
			fmt.Fprint(w, "\n---\n\n")
		}
		if err := writeReport(w, r.state, format, opts...); err != nil {
			return err
		}
	}
	return nil
}

func writeReport(w io.Writer, state pipeline.AnalysisState, format string, opts ...report.Option) error {
	switch format {
	case formatJSON:
		return report.JSON(w, state, opts...)
	case formatPDF:
		return report.PDF(w, state, opts...)
	default:
		return report.Markdown(w, state, opts...)
	}
}
