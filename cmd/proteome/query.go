package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/spf13/cobra"

	"proteomecore/internal/series"
	"proteomecore/pkg/proteome"
)

var (
	queryKind   string
	listText    bool
	barCells    []string
	barSortDesc bool
	scatterCSV  bool
	highlight   []string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [query...]",
	Short: "Resolve gene or accession queries to primary gene symbols",
	Long: `Resolves each argument against the loaded table and prints a match report.
With --text each argument is treated as pasted list text (newline, comma or
semicolon separated).

Example:
  proteome resolve --kind accession P04637 Q53X65
  proteome resolve --text "GAPDH
ACTB;TP53"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResolve,
}

var scatterCmd = &cobra.Command{
	Use:   "scatter <cell-line>",
	Short: "Print the ranked copy-number series of one cell line",
	Args:  cobra.ExactArgs(1),
	RunE:  runScatter,
}

var barCmd = &cobra.Command{
	Use:   "bar <query>",
	Short: "Print one protein's copy number in each cell line",
	Args:  cobra.ExactArgs(1),
	RunE:  runBar,
}

var summaryCmd = &cobra.Command{
	Use:   "summary <cell-line>",
	Short: "Summarize the copy-number distribution of one cell line",
	Args:  cobra.ExactArgs(1),
	RunE:  runSummary,
}

func init() {
	for _, c := range []*cobra.Command{resolveCmd, barCmd} {
		c.Flags().StringVarP(&queryKind, "kind", "k", "gene", "Identifier kind: gene or accession")
	}
	resolveCmd.Flags().BoolVar(&listText, "text", false, "Treat arguments as pasted list text")
	barCmd.Flags().StringSliceVar(&barCells, "cell-line", nil, "Restrict to these cell lines (default all)")
	barCmd.Flags().BoolVar(&barSortDesc, "desc", false, "Sort by copy number, highest first")
	scatterCmd.Flags().BoolVar(&scatterCSV, "csv", false, "Write CSV instead of JSON")
	scatterCmd.Flags().StringSliceVar(&highlight, "highlight", nil, "Gene names to report separately")
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), timeout)
}

func runResolve(cmd *cobra.Command, args []string) error {
	kind, err := proteome.ParseIdentifierKind(queryKind)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()
	rt, err := loadedRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	var report proteome.MatchReport
	if listText {
		report = rt.service.ApplyListText(kind, strings.Join(args, "\n"))
	} else {
		report = rt.service.ResolveManyDetailed(kind, args)
	}
	return printJSON(cmd.OutOrStdout(), report)
}

func runScatter(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()
	rt, err := loadedRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	points := rt.service.ScatterSeries(args[0])
	if scatterCSV {
		return gocsv.Marshal(points, cmd.OutOrStdout())
	}
	normal, highlighted := series.Highlight(points, highlight)
	return printJSON(cmd.OutOrStdout(), map[string]any{
		"cell_line":   args[0],
		"points":      normal,
		"highlighted": highlighted,
	})
}

func runBar(cmd *cobra.Command, args []string) error {
	kind, err := proteome.ParseIdentifierKind(queryKind)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()
	rt, err := loadedRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	entries := rt.service.BarSeries(kind, args[0], barCells)
	if len(entries) == 0 {
		return fmt.Errorf("no protein matches %q", args[0])
	}
	if barSortDesc {
		series.SortBarDescending(entries)
	}
	return printJSON(cmd.OutOrStdout(), entries)
}

func runSummary(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()
	rt, err := loadedRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	summary, ok := rt.service.Summarize(args[0])
	if !ok {
		return fmt.Errorf("no measurements for cell line %q", args[0])
	}
	return printJSON(cmd.OutOrStdout(), summary)
}
