package commands

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"portfolioRiskBot/internal/finance"
)

var (
	analyzeAssets []string
	chartPath     string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Score one equal-weighted portfolio",
	Long: `Fetches daily closes for every asset, builds the equal-weighted value series
and prints its return, Sortino ratio and beta against the benchmark.

Example:
  go run ./cmd/sortino analyze --assets GLEN.L,MRW.L,AZN --rf 0.0502`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringSliceVar(&analyzeAssets, "assets", nil, "comma separated symbols (default PORTFOLIO_ASSETS)")
	analyzeCmd.Flags().StringVar(&chartPath, "chart", "", "write a PNG chart of the value series to this path")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	s, err := setup(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	var assets []string
	if len(analyzeAssets) > 0 {
		assets = finance.SplitSymbols(strings.Join(analyzeAssets, ","))
	}

	ctx := cmd.Context()
	a, err := finance.NewAnalyzer(ctx, s.provider, s.cfg.Analyzer(assets, nil), s.log)
	if err != nil {
		return err
	}
	r, err := a.Report(ctx)
	if err != nil {
		return err
	}
	writeReport(cmd.OutOrStdout(), r, a.Config())

	if chartPath != "" {
		img, err := finance.MakeRiskChart(a, r)
		if err != nil {
			return fmt.Errorf("chart: %w", err)
		}
		if err := os.WriteFile(chartPath, img, 0o644); err != nil {
			return fmt.Errorf("write chart: %w", err)
		}
		s.log.Info().Str("path", chartPath).Int("bytes", len(img)).Msg("chart written")
	}
	return nil
}

func writeReport(w io.Writer, r finance.Report, cfg finance.AnalyzerConfig) {
	fmt.Fprintf(w, "Asset allocation  : %s\n", strings.Join(r.Assets, ", "))
	fmt.Fprintf(w, "Period            : %s ~ %s (%d days)\n", cfg.Start.Format(time.DateOnly), cfg.End.Format(time.DateOnly), r.Points)
	fmt.Fprintf(w, "Risk-free rate    : %g\n", r.RiskFreeRate)
	fmt.Fprintf(w, "Return %%          : %.2f\n", r.PortfolioReturn)
	fmt.Fprintf(w, "Downside deviation: %.4f\n", r.DownsideDeviation)
	fmt.Fprintf(w, "Sortino ratio     : %s\n", r.SortinoText())
	fmt.Fprintf(w, "Beta vs %-10s: %.3f\n", r.Benchmark, r.PortfolioBeta)
}
