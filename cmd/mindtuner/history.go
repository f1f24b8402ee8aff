package main

import (
	"github.com/spf13/cobra"

	"github.com/mindtuner/mindtuner-go/pkg/core"
)

var (
	histUserID string
	histLimit  int
	histByDate bool
)

func init() {
	rootCmd.AddCommand(analyzeCmd, historyCmd, feedbackCmd, healthCmd)

	analyzeCmd.Flags().StringVar(&histUserID, "user", "", "User ID (required)")
	_ = analyzeCmd.MarkFlagRequired("user")

	historyCmd.Flags().StringVar(&histUserID, "user", "", "User ID (required)")
	historyCmd.Flags().IntVar(&histLimit, "limit", 0, "Maximum number of records (default 50)")
	historyCmd.Flags().BoolVar(&histByDate, "by-date", false, "Group records by creation day")
	_ = historyCmd.MarkFlagRequired("user")

	feedbackCmd.Flags().StringVar(&histUserID, "user", "", "User ID (required)")
	feedbackCmd.Flags().IntVar(&histLimit, "limit", 0, "Maximum number of entries (1-50, default 10)")
	_ = feedbackCmd.MarkFlagRequired("user")
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a user's latest feedback",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd.Context(), func(c *core.Client) error {
			analysis, err := c.Personalizer().AnalyzeUser(cmd.Context(), histUserID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), analysis)
		})
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List a user's meditation records, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd.Context(), func(c *core.Client) error {
			if histByDate {
				groups, err := c.Meditations().HistoryByDate(cmd.Context(), histUserID, histLimit)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), groups)
			}
			records, err := c.Meditations().List(cmd.Context(), histUserID, histLimit)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), records)
		})
	},
}

var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "List a user's feedback joined with the rated meditations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd.Context(), func(c *core.Client) error {
			entries, err := c.Personalizer().FeedbackHistory(cmd.Context(), histUserID, histLimit)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), entries)
		})
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check record store health",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd.Context(), func(c *core.Client) error {
			return printJSON(cmd.OutOrStdout(), c.HealthCheck(cmd.Context()))
		})
	},
}
