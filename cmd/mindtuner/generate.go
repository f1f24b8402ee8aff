package main

import (
	"github.com/spf13/cobra"

	"github.com/mindtuner/mindtuner-go/pkg/core"
	"github.com/mindtuner/mindtuner-go/pkg/personalize"
)

var (
	genUserID      string
	genMood        string
	genDescription string
	genPlain       bool
	genPrevious    string
)

func init() {
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(regenerateCmd)

	for _, cmd := range []*cobra.Command{generateCmd, regenerateCmd} {
		cmd.Flags().StringVar(&genUserID, "user", "", "User ID (required)")
		cmd.Flags().StringVar(&genMood, "mood", "", "Current mood (required)")
		cmd.Flags().StringVar(&genDescription, "description", "", "What is going on (required)")
		_ = cmd.MarkFlagRequired("user")
		_ = cmd.MarkFlagRequired("mood")
		_ = cmd.MarkFlagRequired("description")
	}
	generateCmd.Flags().BoolVar(&genPlain, "plain", false, "Ignore feedback history")
	regenerateCmd.Flags().StringVar(&genPrevious, "previous", "", "Record ID to regenerate (required)")
	_ = regenerateCmd.MarkFlagRequired("previous")
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a meditation",
	Long: `Generate a meditation script for the user's mood and situation.

By default the user's rating history shapes the script. Use --plain to
generate from mood and description alone.

Examples:
  mindtuner generate --user u1 --mood anxious --description "overwhelmed at work"
  mindtuner generate --user u1 --mood tired --description "long day" --plain`,
	RunE: func(cmd *cobra.Command, args []string) error {
		req := personalize.Request{UserID: genUserID, Mood: genMood, Description: genDescription}
		return withClient(cmd.Context(), func(c *core.Client) error {
			generate := c.Personalizer().GenerateEnhanced
			if genPlain {
				generate = c.Personalizer().Generate
			}
			res, err := generate(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		})
	},
}

var regenerateCmd = &cobra.Command{
	Use:   "regenerate",
	Short: "Generate a new script replacing an earlier one",
	RunE: func(cmd *cobra.Command, args []string) error {
		req := personalize.Request{UserID: genUserID, Mood: genMood, Description: genDescription}
		return withClient(cmd.Context(), func(c *core.Client) error {
			res, err := c.Personalizer().Regenerate(cmd.Context(), genPrevious, req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		})
	},
}
