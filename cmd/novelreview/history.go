package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/spetersoncode/novelreview/report"
	"github.com/spetersoncode/novelreview/store"
)

func newHistoryCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List archived runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			runs, err := st.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No archived runs.")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCREATED\tSTATUS\tTYPE\tGENRE\tAVERAGE\tSOURCE")
			for _, r := range runs {
				avg := "-"
				if r.Average != nil {
					avg = fmt.Sprintf("%.2f", *r.Average)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					r.ID,
					r.CreatedAt.Local().Format(time.DateTime),
					r.Status,
					orDash(string(r.TextType)),
					orDash(r.MainGenre),
					avg,
					orDash(r.Source),
				)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum runs to list (0 for all)")
	return cmd
}

func newShowCmd(a *app) *cobra.Command {
	var format, output, font string
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print the report of an archived run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format, output); err != nil {
				return err
			}
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			rec, err := st.Get(cmd.Context(), args[0])
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("run %s not found", args[0])
			}
			if err != nil {
				return err
			}

			opts := []report.Option{
				report.WithSource(rec.Source),
				report.WithDuration(rec.Duration),
				report.WithUsage(rec.Usage),
				report.WithFont(font),
			}
			return writeOutput(cmd, output, func(w io.Writer) error {
				return writeReport(w, rec.State, format, opts...)
			})
		},
	}
	f := cmd.Flags()
	f.StringVarP(&format, "format", "f", formatMarkdown, "Output format: markdown, json or pdf")
	f.StringVarP(&output, "output", "o", "", "Write the report to this file instead of stdout (required for pdf)")
	f.StringVar(&font, "font", "", "UTF-8 TrueType font for pdf output, needed for Hangul text")
	return cmd
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
