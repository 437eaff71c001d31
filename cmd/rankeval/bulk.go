package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/knoguchi/rankeval/internal/bulk"
	"github.com/knoguchi/rankeval/internal/report"
)

var bulkCmd = &cobra.Command{
	Use:   "bulk <file.csv>",
	Short: "Run comparisons for every keyword in a CSV file",
	Long: `Read keywords from the search_keywords column of a CSV file, optionally
filter them by nb_searches and search_to_pi_by_search, and run one comparison
per keyword. A failing keyword is reported and the batch continues.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newCLILogger(cfg.LogLevel)

		delimFlag, _ := cmd.Flags().GetString("delimiter")
		delim, err := bulk.ParseDelimiter(delimFlag)
		if err != nil {
			return err
		}

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening keyword file: %w", err)
		}
		defer f.Close()

		rows, err := bulk.ReadRows(f, delim)
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}

		filter := bulk.Filter{}
		if cmd.Flags().Changed("min-searches") {
			v, _ := cmd.Flags().GetFloat64("min-searches")
			filter.MinSearches = &v
		}
		if cmd.Flags().Changed("min-pi") {
			v, _ := cmd.Flags().GetFloat64("min-pi")
			filter.MinPI = &v
		}
		if cmd.Flags().Changed("max-pi") {
			v, _ := cmd.Flags().GetFloat64("max-pi")
			filter.MaxPI = &v
		}
		selected := filter.Apply(rows)
		logger.Info("keywords selected", "read", len(rows), "selected", len(selected))

		svc, err := buildCompareService(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}

		jsonOutput, _ := cmd.Flags().GetBool("json")
		enc := json.NewEncoder(cmd.OutOrStdout())

		outcomes := bulk.NewRunner(svc, logger).Run(cmd.Context(), selected, func(o bulk.Outcome) {
			if !jsonOutput {
				return
			}
			line := map[string]any{"keyword": o.Keyword}
			if o.Err != nil {
				line["error"] = o.Err.Error()
			} else {
				line["comparison"] = report.NewComparisonView(o.Comparison)
			}
			if err := enc.Encode(line); err != nil {
				logger.Error("writing result", "keyword", o.Keyword, "error", err)
			}
		})
		if jsonOutput {
			return nil
		}

		summary := make([]report.BulkRow, len(outcomes))
		for i, o := range outcomes {
			summary[i] = report.BulkRow{Keyword: o.Keyword, Err: o.Err}
			if o.Comparison != nil {
				summary[i].Results = len(o.Comparison.Baseline)
				summary[i].Evaluation = o.Comparison.Evaluation
			}
		}
		forceColor, _ := cmd.Flags().GetBool("color")
		return report.NewPrinter(cmd.OutOrStdout(), report.ResolveColors(forceColor)).Bulk(summary)
	},
}

func init() {
	rootCmd.AddCommand(bulkCmd)

	bulkCmd.Flags().StringP("delimiter", "d", ",", `field delimiter: ",", ";", "|" or "tab"`)
	bulkCmd.Flags().Float64("min-searches", 0, "minimum nb_searches")
	bulkCmd.Flags().Float64("min-pi", 0, "minimum search_to_pi_by_search")
	bulkCmd.Flags().Float64("max-pi", 0, "maximum search_to_pi_by_search")
	bulkCmd.Flags().Bool("json", false, "stream one JSON object per keyword")
	bulkCmd.Flags().Bool("color", false, "force colored output")
}
