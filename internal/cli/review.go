package cli

import (
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/conorfennell/studytrace/internal/review"
	"github.com/conorfennell/studytrace/internal/study"
)

// DueCmd returns the due command.
func DueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "due",
		Short: "List cards that are due for review",
		Args:  cobra.NoArgs,
		RunE:  runDue,
	}
	cmd.Flags().Int("limit", 0, "Maximum number of cards (default from config)")
	return cmd
}

func runDue(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	if limit <= 0 {
		limit = a.cfg.Review.DueLimit
	}
	cards, err := a.study.DueCards(cmd.Context(), limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(cards) == 0 {
		fmt.Fprintln(out, "Nothing due. Come back later.")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tREVIEWS")
	for _, c := range cards {
		count := 0
		if c.Review != nil {
			count = c.Review.ReviewCount
		}
		fmt.Fprintf(w, "%s\t%s\t%d\n", c.ID, c.Title, count)
	}
	return w.Flush()
}

// SuggestCmd returns the suggest command.
func SuggestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Rank cards by how urgently they need a review",
		Args:  cobra.NoArgs,
		RunE:  runSuggest,
	}
	cmd.Flags().Int("limit", 0, "Maximum number of suggestions (default from config)")
	return cmd
}

func runSuggest(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	if limit <= 0 {
		limit = a.cfg.Review.SuggestionLimit
	}
	res, err := a.study.Suggest(cmd.Context(), limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, res.Message)
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, s := range res.Suggestions {
		fmt.Fprintf(w, "%s\t%5.1f\t%s\t%s\t%s\n", urgencyLabel(s.Urgency), s.Priority, s.CardID, s.Title, s.Message)
	}
	return w.Flush()
}

func urgencyLabel(u review.Urgency) string {
	switch u {
	case review.UrgencyOverdue:
		return color.New(color.FgRed).Sprint("OVERDUE")
	case review.UrgencyDueToday:
		return color.New(color.FgYellow).Sprint("TODAY")
	case review.UrgencyNew:
		return color.New(color.FgBlue).Sprint("NEW")
	default:
		return color.New(color.FgGreen).Sprint("LATER")
	}
}

// ReviewCmd returns the review command.
func ReviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "review <card-id> <quality>",
		Short: "Record a review of a card",
		Long: `Record a review of a card with a quality score from 0 to 5.

  0-2  failed recall, the card is scheduled again tomorrow
  3    correct with serious difficulty
  4    correct after hesitation
  5    perfect recall`,
		Args: cobra.ExactArgs(2),
		RunE: runReview,
	}
}

func runReview(cmd *cobra.Command, args []string) error {
	quality, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid quality %q: %w", args[1], study.ErrInvalidQuality)
	}

	a, err := openApp(cmd, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.study.SubmitReview(cmd.Context(), args[0], quality)
	if errors.Is(err, study.ErrCardNotFound) {
		return fmt.Errorf("%w: %s", err, args[0])
	}
	if err != nil {
		return err
	}

	next := "-"
	if res.Card.Review != nil && res.Card.Review.NextReviewAt != nil {
		next = res.Card.Review.NextReviewAt.Local().Format("2006-01-02")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (next review %s)\n", res.Message, next)
	return nil
}
