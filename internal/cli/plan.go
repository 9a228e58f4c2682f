package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// PlanCmd returns the plan command.
func PlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Generate a review plan from the most urgent cards",
		Args:  cobra.NoArgs,
		RunE:  runPlan,
	}
	cmd.Flags().String("date", "", "Plan date as YYYY-MM-DD (default today)")
	return cmd
}

func runPlan(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	date, _ := cmd.Flags().GetString("date")
	if date != "" {
		if err := a.validate.Var(date, "datetime=2006-01-02"); err != nil {
			return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", date)
		}
	}

	res, err := a.study.SmartPlan(cmd.Context(), date)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	bold := color.New(color.Bold)
	fmt.Fprintf(out, "%s %s (%d items)\n", bold.Sprint("Plan"), res.Plan.Date, len(res.Plan.Items))
	if len(res.Plan.Items) == 0 {
		fmt.Fprintln(out, "Nothing to review.")
		return nil
	}
	for i, item := range res.Plan.Items {
		fmt.Fprintf(out, "%2d. %s [%s]\n    %s\n    %s\n", i+1, bold.Sprint(item.Title), item.CardID, item.Action, item.Reason)
	}
	return nil
}
