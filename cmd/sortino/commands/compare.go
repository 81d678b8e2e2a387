package commands

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"portfolioRiskBot/internal/finance"
)

var comparePortfolios []string

var defaultPortfolios = []string{"GLEN.L,MRW.L,AZN", "LGEN.L,TSCO,GSK"}

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Score several portfolios side by side",
	Long: `Builds one analyzer per --portfolio and prints a comparison table.
Without --portfolio two sample FTSE portfolios are compared.

Example:
  go run ./cmd/sortino compare --portfolio GLEN.L,MRW.L,AZN --portfolio LGEN.L,TSCO,GSK`,
	RunE: runCompare,
}

func init() {
	compareCmd.Flags().StringArrayVar(&comparePortfolios, "portfolio", nil, "comma separated symbols; repeat for each portfolio")
	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	s, err := setup(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	portfolios := comparePortfolios
	if len(portfolios) == 0 {
		portfolios = defaultPortfolios
	}

	ctx := cmd.Context()
	reports := make([]finance.Report, 0, len(portfolios))
	for i, p := range portfolios {
		a, err := finance.NewAnalyzer(ctx, s.provider, s.cfg.Analyzer(finance.SplitSymbols(p), nil), s.log)
		if err != nil {
			return fmt.Errorf("portfolio %d: %w", i+1, err)
		}
		r, err := a.Report(ctx)
		if err != nil {
			return fmt.Errorf("portfolio %d: %w", i+1, err)
		}
		reports = append(reports, r)
	}
	return writeComparison(cmd.OutOrStdout(), reports)
}

func writeComparison(w io.Writer, reports []finance.Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\tAsset allocation\tReturn %\tSortino ratio\tPortfolio beta")
	for i, r := range reports {
		fmt.Fprintf(tw, "Portfolio %d\t%s\t%.2f\t%s\t%.3f\n",
			i+1, strings.Join(r.Assets, ", "), r.PortfolioReturn, r.SortinoText(), r.PortfolioBeta)
	}
	return tw.Flush()
}
