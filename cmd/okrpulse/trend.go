package main

import (
	"context"
	"fmt"
	"time"

	"github.com/hyperengineering/okrpulse/internal/period"
	"github.com/hyperengineering/okrpulse/internal/progress"
	"github.com/hyperengineering/okrpulse/internal/types"
	"github.com/spf13/cobra"
)

var (
	trendObjective  string
	trendDepartment string
	trendPeriod     string
)

var trendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Print weekly progress for an objective or a department",
	Long: "Print the weekly progress series for one objective (--objective) or for a " +
		"department's leader objectives in a period (--department, --period).",
	Args: cobra.NoArgs,
	RunE: runTrend,
}

func init() {
	addStoreFlags(trendCmd)
	trendCmd.Flags().StringVar(&trendObjective, "objective", "", "Objective ID")
	trendCmd.Flags().StringVar(&trendDepartment, "department", "", "Department ID")
	trendCmd.Flags().StringVar(&trendPeriod, "period", "", "Period such as 2026-01/02 (default: current)")
	trendCmd.MarkFlagsMutuallyExclusive("objective", "department")
	trendCmd.MarkFlagsOneRequired("objective", "department")
}

// trendReport is the JSON form of the trend command output.
type trendReport struct {
	ObjectiveID  string                `json:"objective_id,omitempty"`
	DepartmentID string                `json:"department_id,omitempty"`
	Period       string                `json:"period"`
	Progress     int                   `json:"progress"`
	Trend        []types.ProgressPoint `json:"trend"`
}

func runTrend(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	p := trendPeriod
	if p == "" {
		p = period.Current(time.Now()).String()
	}
	if trendDepartment != "" {
		if _, err := period.Parse(p); err != nil {
			return err
		}
	}

	db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	var report trendReport
	if trendObjective != "" {
		obj, err := db.GetObjective(ctx, trendObjective)
		if err != nil {
			return fmt.Errorf("load objective %s: %w", trendObjective, err)
		}
		summary := progress.Summarize(*obj)
		report = trendReport{
			ObjectiveID: obj.ID,
			Period:      obj.Period,
			Progress:    summary.Progress,
			Trend:       summary.Trend,
		}
	} else {
		if _, err := db.GetDepartment(ctx, trendDepartment); err != nil {
			return fmt.Errorf("load department %s: %w", trendDepartment, err)
		}
		objs, err := db.ListLeaderObjectives(ctx, trendDepartment, p)
		if err != nil {
			return fmt.Errorf("list leader objectives: %w", err)
		}
		report = trendReport{
			DepartmentID: trendDepartment,
			Period:       p,
			Progress:     progress.DepartmentProgress(objs),
			Trend:        progress.BuildDepartmentTrend(objs),
		}
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), report)
	}
	return printTrend(cmd, report)
}

func printTrend(cmd *cobra.Command, r trendReport) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Period:   %s\n", r.Period)
	fmt.Fprintf(out, "Progress: %d%%\n", r.Progress)

	if len(r.Trend) == 0 {
		fmt.Fprintln(out, "No check-ins recorded.")
		return nil
	}

	w := newTabWriter(out)
	fmt.Fprintln(w, "WEEK\tPROGRESS")
	for _, pt := range r.Trend {
		fmt.Fprintf(w, "%d\t%d%%\n", pt.WeekNumber, pt.Progress)
	}
	return w.Flush()
}
