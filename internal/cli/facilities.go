package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	rank := &cobra.Command{
		Use:   "facilities",
		Short: "List facilities for a symptom category",
		RunE:  runFacilities,
	}
	rank.Flags().StringP("category", "c", "", "Symptom category, e.g. respiratory or chest")
	rank.Flags().IntP("severity", "s", 0, "Severity 1-10; 8 and above prefers 24x7 emergency care")

	nearest := &cobra.Command{
		Use:   "nearest",
		Short: "List the facilities closest to a location",
		RunE:  runNearest,
	}
	nearest.Flags().Float64("lat", 0, "Latitude (required)")
	nearest.Flags().Float64("lng", 0, "Longitude (required)")
	nearest.MarkFlagRequired("lat")
	nearest.MarkFlagRequired("lng")

	RootCmd.AddCommand(rank, nearest)
}

func runFacilities(cmd *cobra.Command, args []string) error {
	category, _ := cmd.Flags().GetString("category")
	severity, _ := cmd.Flags().GetInt("severity")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	tables, err := loadTables(cfg)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), tables.Ranker().Rank(category, severity))
}

func runNearest(cmd *cobra.Command, args []string) error {
	lat, _ := cmd.Flags().GetFloat64("lat")
	lng, _ := cmd.Flags().GetFloat64("lng")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	tables, err := loadTables(cfg)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), map[string]any{
		"hospitals": tables.Ranker().RankNearest(lat, lng),
	})
}
