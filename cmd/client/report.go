package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/marcosbarbosa-dev/appfinance/internal/calendar"
	"github.com/marcosbarbosa-dev/appfinance/internal/services"
	"github.com/marcosbarbosa-dev/appfinance/internal/session"
)

func reportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report [YYYY-MM]",
		Short: "Summarise a month (default: the current one)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			month := calendar.Today(calendar.System)[:7]
			if len(args) == 1 {
				month = args[0]
			}
			return withClient(cmd.Context(), func(c *client) error {
				if _, err := c.active(); err != nil {
					return err
				}
				report, err := c.MonthlyReport(month)
				if err != nil {
					return err
				}
				return printReport(cmd.OutOrStdout(), report)
			})
		},
	}
}

func printReport(out io.Writer, r services.MonthlyReport) error {
	fmt.Fprintln(out, titleStyle.Render("Report for "+r.Month))
	fmt.Fprintf(out, "Income   %s\n", incomeStyle.Render(r.Income.StringFixed(2)))
	fmt.Fprintf(out, "Expense  %s\n", expenseStyle.Render(r.Expense.StringFixed(2)))
	fmt.Fprintf(out, "Balance  %s\n\n", money(r.Balance))

	for _, section := range []struct {
		title string
		lines []services.ReportLine
	}{
		{"Spending by account", r.ByAccount},
		{"Spending by category", r.ByCategory},
	} {
		if len(section.lines) == 0 {
			continue
		}
		w := newTable(out, section.title, "Total")
		for _, line := range section.lines {
			fmt.Fprintf(w, "%s\t%s\n", line.Label, line.Total.StringFixed(2))
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Fprintln(out)
	}
	return nil
}

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stay signed in and follow configuration and account changes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd.Context(), func(c *client) error {
				user, err := c.active()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, subtleStyle.Render(fmt.Sprintf("Watching as %s. Press Ctrl+C to stop.", user.Username)))

				ctx, cancel := context.WithCancel(cmd.Context())
				defer cancel()
				stop := c.Session.OnChange(func(change session.Change) {
					switch change.To {
					case session.LoggingOut:
						msg := "Signing out."
						if change.Reason != "" {
							msg = change.Reason
						}
						fmt.Fprintln(out, warningStyle.Render(msg))
					case session.LoggedOut:
						cancel()
					}
				})
				defer stop()

				if err := c.Run(ctx); err != nil && ctx.Err() == nil {
					return err
				}
				return nil
			})
		},
	}
}
