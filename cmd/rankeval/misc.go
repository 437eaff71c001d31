package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/knoguchi/rankeval/internal/auth"
	"github.com/knoguchi/rankeval/internal/evaluation"
)

var version = "dev"

var ndcgCmd = &cobra.Command{
	Use:   "ndcg <score...>",
	Short: "Compute NDCG for relevance grades in ranked order",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scores := make([]float64, len(args))
		for i, a := range args {
			v, err := strconv.ParseFloat(a, 64)
			if err != nil {
				return fmt.Errorf("invalid score %q: %w", a, err)
			}
			scores[i] = v
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "DCG:  %.4f\n", evaluation.DCG(scores))
		fmt.Fprintf(w, "NDCG: %.4f\n", evaluation.NDCG(scores))
		return nil
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token <subject>",
	Short: "Mint a JWT for the HTTP API",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.JWTSecret == "" {
			return errors.New("JWT_SECRET is not set")
		}

		expiry := cfg.JWTExpiry
		if cmd.Flags().Changed("expiry") {
			expiry, _ = cmd.Flags().GetDuration("expiry")
		}
		name, _ := cmd.Flags().GetString("name")

		m := auth.NewJWTManager(&auth.JWTConfig{
			Secret: cfg.JWTSecret,
			Expiry: cfg.JWTExpiry,
			Issuer: cfg.JWTIssuer,
		})
		token, err := m.GenerateTokenWithExpiry(args[0], name, expiry)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]string{
				"version":   version,
				"goVersion": runtime.Version(),
				"platform":  runtime.GOOS + "/" + runtime.GOARCH,
			})
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "rankeval version %s\n", version)
		fmt.Fprintf(w, "  go version: %s\n", runtime.Version())
		fmt.Fprintf(w, "  platform:   %s/%s\n", runtime.GOOS, runtime.GOARCH)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ndcgCmd, tokenCmd, versionCmd)

	tokenCmd.Flags().String("name", "", "display name stored in the token")
	tokenCmd.Flags().Duration("expiry", 24*time.Hour, "token lifetime (default JWT_EXPIRY)")
	versionCmd.Flags().Bool("json", false, "output as JSON")
}
