package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/namelens/expirywatch/internal/config"
	"github.com/namelens/expirywatch/internal/observability"
	"github.com/namelens/expirywatch/internal/output"
)

// ErrAlerting is returned by check --fail-on-alert when any domain alerts.
var ErrAlerting = errors.New("one or more domains are within the alert threshold")

var checkCmd = &cobra.Command{
	Use:   "check [domains...]",
	Short: "Resolve expiry dates once and print them",
	Long: `Resolve every domain once through the configured tiers and print the result.

Domains given as arguments replace DOMAINS; all other settings come from the
environment and --config.

Examples:
  expirywatch check example.com example.org
  expirywatch check --output json
  expirywatch check --fail-on-alert`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringP("output", "o", "table", "Output format: table, json, yaml, flat")
	checkCmd.Flags().Bool("fail-on-alert", false, "Exit non-zero when any domain is within the alert threshold")
}

func runCheck(cmd *cobra.Command, args []string) error {
	formatRaw, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	format, err := output.ParseFormat(formatRaw)
	if err != nil {
		return &config.ValidationError{Problems: []string{err.Error()}}
	}
	failOnAlert, err := cmd.Flags().GetBool("fail-on-alert")
	if err != nil {
		return err
	}

	cfg, err := loadConfig(args, nil)
	if err != nil {
		return err
	}

	logger := observability.CLILogger
	p := newPipeline(cfg, nil, logger)
	logger.Debug("Resolved configuration", configSummary(cfg, tierNames(p.chain))...)

	snapshot := p.assembler.Assemble(cmd.Context(), cfg.Domains)

	rendered, err := output.NewFormatter(format, cfg.Alert.Emoji).FormatSnapshot(snapshot)
	if err != nil {
		return fmt.Errorf("render snapshot: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), rendered)

	if failOnAlert && snapshot.AlertCount() > 0 {
		logger.Warn("Alerting domains found", zap.Int("alerts", snapshot.AlertCount()))
		return ErrAlerting
	}
	return nil
}
