package main

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/knoguchi/rankeval/internal/report"
	"github.com/knoguchi/rankeval/internal/service"
)

var compareCmd = &cobra.Command{
	Use:   "compare <query...>",
	Short: "Run one ranking comparison",
	Long: `Search for the query, re-rank the results pointwise and listwise, and
print the three orderings with their NDCG scores.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newCLILogger(cfg.LogLevel)

		svc, err := buildCompareService(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}

		query := strings.Join(args, " ")
		var cmp *service.Comparison
		if cmd.Flags().Changed("lat") || cmd.Flags().Changed("lon") {
			lat, _ := cmd.Flags().GetFloat64("lat")
			lon, _ := cmd.Flags().GetFloat64("lon")
			cmp, err = svc.RunAt(cmd.Context(), query, lat, lon)
		} else {
			cmp, err = svc.Run(cmd.Context(), query)
		}
		if err != nil {
			return err
		}

		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report.NewComparisonView(cmp))
		}

		forceColor, _ := cmd.Flags().GetBool("color")
		return report.NewPrinter(cmd.OutOrStdout(), report.ResolveColors(forceColor)).Comparison(cmp)
	},
}

func init() {
	rootCmd.AddCommand(compareCmd)

	compareCmd.Flags().Float64("lat", 0, "search latitude (default SEARCH_LATITUDE)")
	compareCmd.Flags().Float64("lon", 0, "search longitude (default SEARCH_LONGITUDE)")
	compareCmd.Flags().Bool("json", false, "output as JSON")
	compareCmd.Flags().Bool("color", false, "force colored output")
}
