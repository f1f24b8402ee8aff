package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mindtuner/mindtuner-go/pkg/core"
	"github.com/mindtuner/mindtuner-go/pkg/rating"
)

var (
	rtUserID   string
	rtKind     string
	rateKind   string
	rtScore    int
	rtComment  string
	rtRecordID string
	rtTags     string
	rtLimit    int
)

func init() {
	rootCmd.AddCommand(rateCmd, ratingsCmd, statsCmd, preferencesCmd, deleteRatingCmd)

	rateCmd.Flags().StringVar(&rtUserID, "user", "", "User ID (required)")
	rateCmd.Flags().StringVar(&rateKind, "kind", string(rating.KindMeditation), "Rating kind: meditation, mood or general")
	rateCmd.Flags().IntVar(&rtScore, "score", 0, "Score from 1 to 5 (required)")
	rateCmd.Flags().StringVar(&rtComment, "comment", "", "Free-text comment")
	rateCmd.Flags().StringVar(&rtRecordID, "record", "", "Meditation record ID being rated")
	rateCmd.Flags().StringVar(&rtTags, "tags", "", "Comma separated feedback tags")
	_ = rateCmd.MarkFlagRequired("user")
	_ = rateCmd.MarkFlagRequired("score")

	ratingsCmd.Flags().StringVar(&rtUserID, "user", "", "User ID (required)")
	ratingsCmd.Flags().StringVar(&rtKind, "kind", "", "Filter by kind")
	ratingsCmd.Flags().IntVar(&rtLimit, "limit", rating.DefaultListLimit, "Maximum number of ratings (1-100)")
	_ = ratingsCmd.MarkFlagRequired("user")

	statsCmd.Flags().StringVar(&rtUserID, "user", "", "Restrict to one user")
	statsCmd.Flags().StringVar(&rtKind, "kind", "", "Restrict to one kind")

	preferencesCmd.Flags().StringVar(&rtUserID, "user", "", "User ID (required)")
	_ = preferencesCmd.MarkFlagRequired("user")
}

func optionalKind(s string) (rating.Kind, error) {
	if s == "" {
		return "", nil
	}
	return rating.ParseKind(s)
}

var rateCmd = &cobra.Command{
	Use:   "rate",
	Short: "Record a rating",
	Long: `Record a 1-5 rating. Linking a meditation record with --record copies the
score, comment and tags onto that record.

Examples:
  mindtuner rate --user u1 --score 4 --record 1712345678901234567 --tags calming,voice`,
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := rating.ParseKind(rateKind)
		if err != nil {
			return err
		}
		return withClient(cmd.Context(), func(c *core.Client) error {
			rec, err := c.Ratings().Create(cmd.Context(), rating.CreateRequest{
				UserID:             rtUserID,
				Kind:               kind,
				Score:              rtScore,
				Comment:            rtComment,
				MeditationRecordID: rtRecordID,
				Tags:               parseTags(rtTags),
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rec)
		})
	},
}

var ratingsCmd = &cobra.Command{
	Use:   "ratings [rating-id]",
	Short: "List a user's ratings or show one rating",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := optionalKind(rtKind)
		if err != nil {
			return err
		}
		return withClient(cmd.Context(), func(c *core.Client) error {
			if len(args) == 1 {
				rec, err := c.Ratings().Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), rec)
			}
			recs, err := c.Ratings().List(cmd.Context(), rtUserID, rating.ListOptions{Kind: kind, Limit: rtLimit})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), recs)
		})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show rating statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := optionalKind(rtKind)
		if err != nil {
			return err
		}
		return withClient(cmd.Context(), func(c *core.Client) error {
			stats, err := c.Ratings().Statistics(cmd.Context(), rating.StatisticsOptions{UserID: rtUserID, Kind: kind})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), stats)
		})
	},
}

var preferencesCmd = &cobra.Command{
	Use:   "preferences",
	Short: "Show the tags a user rates highly or poorly",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd.Context(), func(c *core.Client) error {
			prefs, err := c.Ratings().FeedbackPreferences(cmd.Context(), rtUserID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), prefs)
		})
	},
}

var deleteRatingCmd = &cobra.Command{
	Use:   "delete-rating <rating-id>",
	Short: "Delete a rating",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd.Context(), func(c *core.Client) error {
			ok, err := c.Ratings().Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), strconv.FormatBool(ok))
			return err
		})
	},
}
