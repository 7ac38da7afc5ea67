// Package cli implements the care-navigator commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Ranjith-47/care-navigator/internal/config"
	"github.com/Ranjith-47/care-navigator/internal/refdata"
)

var (
	envFile    string
	refDataDir string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:           "care-navigator",
	Short:         "Rule-based symptom triage and care navigation",
	Long:          "Guides a patient through a fixed set of triage questions, detects emergencies and points to suitable facilities.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	RootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file to load if present")
	RootCmd.PersistentFlags().StringVar(&refDataDir, "refdata", "", "Directory with reference table overrides (default: $REFDATA_DIR)")
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}
	if refDataDir != "" {
		cfg.RefDataDir = refDataDir
	}
	return cfg, nil
}

func loadTables(cfg *config.Config) (*refdata.Tables, error) {
	tables, err := refdata.Load(cfg.RefDataDir)
	if err != nil {
		return nil, fmt.Errorf("reference data: %w", err)
	}
	return tables, nil
}

func printJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
