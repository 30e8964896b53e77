package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/2beens/fitcalc/internal/calculations"
	"github.com/2beens/fitcalc/internal/history"

	"github.com/spf13/cobra"
)

const dateLayout = "2006-01-02"

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse the calculation history of the signed in user",
	}
	cmd.AddCommand(
		newHistoryAllCmd(opts),
		newHistoryLatestCmd(opts),
		newHistoryByDateCmd(opts),
		newHistoryByIDCmd(opts),
		newHistoryByTypeCmd(opts),
		newHistoryDeleteCmd(opts),
		newHistoryGoalCmd(opts),
	)
	return cmd
}

func newHistoryAllCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "all",
		Short: "List every calculation, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, err := opts.app.userID()
			if err != nil {
				return err
			}
			res := opts.app.history.All(cmd.Context(), userID)
			if err := resultErr(res); err != nil {
				return err
			}
			return printRecords(cmd.OutOrStdout(), res.Data)
		},
	}
}

func newHistoryLatestCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "latest",
		Short: "Show the latest calculation of every type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, err := opts.app.userID()
			if err != nil {
				return err
			}
			res := opts.app.history.Latest(cmd.Context(), userID)
			if err := resultErr(res); err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, t := range calculations.AllTypes {
				c := res.Data.Get(t)
				if c == nil {
					fmt.Fprintf(tw, "%s\t-\t\n", t.Label())
					continue
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", t.Label(), calculations.Summary(*c), c.CreatedAt.Local().Format(time.DateTime))
			}
			return tw.Flush()
		},
	}
}

func newHistoryByDateCmd(opts *rootOptions) *cobra.Command {
	var from, to, calcType string
	cmd := &cobra.Command{
		Use:   "by-date",
		Short: "List calculations in a date range, both days inclusive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, err := opts.app.userID()
			if err != nil {
				return err
			}
			start, err := parseDay(from)
			if err != nil {
				return fmt.Errorf("--from: %w", err)
			}
			end, err := parseDay(to)
			if err != nil {
				return fmt.Errorf("--to: %w", err)
			}
			end = end.Add(24*time.Hour - time.Millisecond)
			if end.Before(start) {
				return fmt.Errorf("--to is before --from")
			}

			var typeFilter *calculations.Type
			if calcType != "" {
				t, err := calculations.ParseType(calcType)
				if err != nil {
					return err
				}
				typeFilter = &t
			}

			res := opts.app.history.ByDate(cmd.Context(), userID, start, end, typeFilter)
			if err := resultErr(res); err != nil {
				return err
			}
			return printRecords(cmd.OutOrStdout(), res.Data)
		},
	}

	today := time.Now().Format(dateLayout)
	cmd.Flags().StringVar(&from, "from", today, "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", today, "last day, YYYY-MM-DD")
	cmd.Flags().StringVar(&calcType, "type", "", "only this calculation type")
	return cmd
}

func newHistoryByIDCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "by-id ID...",
		Short: "Show calculations by id",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := opts.app.userID()
			if err != nil {
				return err
			}
			res := opts.app.history.ByID(cmd.Context(), userID, args)
			if err := resultErr(res); err != nil {
				return err
			}
			return printRecords(cmd.OutOrStdout(), res.Data)
		},
	}
}

func newHistoryByTypeCmd(opts *rootOptions) *cobra.Command {
	var pages int
	cmd := &cobra.Command{
		Use:   "by-type TYPE",
		Short: "List calculations of one type, page by page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := opts.app.userID()
			if err != nil {
				return err
			}
			calcType, err := calculations.ParseType(args[0])
			if err != nil {
				return err
			}

			res := opts.app.history.ByType(cmd.Context(), userID, calcType)
			for loaded := 1; resultErr(res) == nil && res.Data.HasNextPage() && loaded < pages; loaded++ {
				res = opts.app.history.NextByType(cmd.Context(), userID, calcType)
			}
			if err := resultErr(res); err != nil {
				return err
			}

			if err := printRecords(cmd.OutOrStdout(), history.Records(res.Data)); err != nil {
				return err
			}
			if res.Data.HasNextPage() {
				fmt.Fprintln(cmd.OutOrStdout(), "more available, use --pages to load more")
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&pages, "pages", 1, "number of pages to load")
	return cmd
}

func newHistoryDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID...",
		Short: "Delete calculations by id",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := opts.app.userID()
			if err != nil {
				return err
			}
			res, err := opts.app.mutator.Delete(cmd.Context(), userID, args)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d of %d\n", len(res.Deleted), len(res.Requested))
			return nil
		},
	}
}

func newHistoryGoalCmd(opts *rootOptions) *cobra.Command {
	var goal calculations.ActiveGoal
	cmd := &cobra.Command{
		Use:   "goal",
		Short: "Show progress towards a body goal from the latest calculations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, err := opts.app.userID()
			if err != nil {
				return err
			}

			goal.TargetWeight = changedFloat(cmd, "target-weight")
			goal.TargetBodyFat = changedFloat(cmd, "target-body-fat")
			goal.TargetLBM = changedFloat(cmd, "target-lbm")
			if goal.TargetWeight == nil && goal.TargetBodyFat == nil && goal.TargetLBM == nil {
				return fmt.Errorf("one of --target-weight, --target-body-fat, --target-lbm is required")
			}

			res := opts.app.history.Latest(cmd.Context(), userID)
			if err := resultErr(res); err != nil {
				return err
			}

			current := calculations.ReadingsFromLatest(res.Data)
			current.StartWeightKg = changedFloat(cmd, "start-weight")
			current.StartBodyFatPercent = changedFloat(cmd, "start-body-fat")
			current.StartLeanBodyMassKg = changedFloat(cmd, "start-lbm")

			progress := calculations.TrackGoal(goal, current)
			reading := "-"
			if progress.Current != nil {
				reading = fmt.Sprintf("%.1f", *progress.Current)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s -> %.1f %s (%d%%)\n",
				progress.Title, reading, progress.Target, progress.Unit, progress.Percent)
			return err
		},
	}

	cmd.Flags().StringVar(&goal.GoalType, "goal-type", "", "goal type, e.g. fatLoss, muscleGain, recomp")
	cmd.Flags().Float64("target-weight", 0, "target weight in kg")
	cmd.Flags().Float64("target-body-fat", 0, "target body fat in %")
	cmd.Flags().Float64("target-lbm", 0, "target lean body mass in kg")
	cmd.Flags().Float64("start-weight", 0, "weight in kg when the goal was set")
	cmd.Flags().Float64("start-body-fat", 0, "body fat in % when the goal was set")
	cmd.Flags().Float64("start-lbm", 0, "lean body mass in kg when the goal was set")
	return cmd
}

// changedFloat is nil for a flag the user did not set.
func changedFloat(cmd *cobra.Command, name string) *float64 {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetFloat64(name)
	if err != nil {
		return nil
	}
	return &v
}

func printRecords(w io.Writer, records []calculations.Calculation) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "no calculations")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, c := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.ID, c.CreatedAt.Local().Format(time.DateTime), c.Type.Label(), calculations.Summary(c))
	}
	return tw.Flush()
}

func parseDay(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation(dateLayout, s, time.Local)
}
