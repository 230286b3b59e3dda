package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/marcosbarbosa-dev/appfinance/internal/calendar"
	"github.com/marcosbarbosa-dev/appfinance/internal/models"
)

func newTable(out io.Writer, headers ...string) *tabwriter.Writer {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	cells := make([]string, len(headers))
	for i, h := range headers {
		cells[i] = headerStyle.Render(h)
	}
	fmt.Fprintln(w, strings.Join(cells, "\t"))
	return w
}

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage categories",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List your categories and the shared ones",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd.Context(), func(c *client) error {
				if _, err := c.active(); err != nil {
					return err
				}
				rows := c.Categories.All()
				sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })

				w := newTable(cmd.OutOrStdout(), "ID", "Name", "Type", "Scope")
				for _, cat := range rows {
					scope := "mine"
					if cat.Owner() == "" {
						scope = subtleStyle.Render("shared")
					}
					fmt.Fprintf(w, "%s\t%s %s\t%s\t%s\n", cat.ID, cat.Icon, cat.Name, cat.Type, scope)
				}
				return w.Flush()
			})
		},
	})

	var catType, icon, color string
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(c *client) error {
				if _, err := c.active(); err != nil {
					return err
				}
				saved, err := c.Categories.Save(cmd.Context(), &models.Category{
					Name:  args[0],
					Type:  models.CategoryType(catType),
					Icon:  icon,
					Color: color,
				})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("Category %q created (%s).", saved.Name, saved.ID)))
				return nil
			})
		},
	}
	add.Flags().StringVar(&catType, "type", string(models.CategoryTypeExpense), "income or expense")
	add.Flags().StringVar(&icon, "icon", "", "icon")
	add.Flags().StringVar(&color, "color", "", "color")
	cmd.AddCommand(add)

	cmd.AddCommand(deleteCmd("category", func(c *client) deleter { return c.Categories }))
	return cmd
}

func accountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage bank accounts",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List your bank accounts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd.Context(), func(c *client) error {
				if _, err := c.active(); err != nil {
					return err
				}
				w := newTable(cmd.OutOrStdout(), "ID", "Name", "Type", "Bank")
				for _, a := range c.Accounts.All() {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", a.ID, a.Name, a.Type, a.BankName)
				}
				return w.Flush()
			})
		},
	})

	var accType, bank string
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a bank account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(c *client) error {
				if _, err := c.active(); err != nil {
					return err
				}
				saved, err := c.Accounts.Save(cmd.Context(), &models.BankAccount{
					Name:     args[0],
					Type:     models.AccountType(accType),
					BankName: bank,
				})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("Account %q created (%s).", saved.Name, saved.ID)))
				return nil
			})
		},
	}
	add.Flags().StringVar(&accType, "type", string(models.AccountTypeChecking), "checking, savings, credit_card, investment or cash")
	add.Flags().StringVar(&bank, "bank", "", "bank name")
	cmd.AddCommand(add)

	cmd.AddCommand(deleteCmd("account", func(c *client) deleter { return c.Accounts }))
	return cmd
}

func txCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Manage transactions",
	}

	var month string
	list := &cobra.Command{
		Use:   "list",
		Short: "List transactions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd.Context(), func(c *client) error {
				if _, err := c.active(); err != nil {
					return err
				}
				rows := c.Transactions.All()
				sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date > rows[j].Date })

				w := newTable(cmd.OutOrStdout(), "Date", "Description", "Amount", "Category", "Account", "ID")
				for _, tx := range rows {
					if month != "" && !strings.HasPrefix(tx.Date, month) {
						continue
					}
					account, ok := c.Accounts.Get(tx.AccountID)
					accountName := account.Name
					if !ok {
						accountName = subtleStyle.Render("Unknown account")
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
						tx.Date, tx.Description+tx.InstallmentLabel(), money(tx.Amount), tx.Category, accountName, subtleStyle.Render(tx.ID))
				}
				return w.Flush()
			})
		},
	}
	list.Flags().StringVar(&month, "month", "", "only show YYYY-MM")
	cmd.AddCommand(list)

	var desc, amount, txType, date, category, account, installment string
	add := &cobra.Command{
		Use:   "add",
		Short: "Record a transaction or an installment series",
		RunE: func(cmd *cobra.Command, _ []string) error {
			value, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("invalid amount %q", amount)
			}
			if date == "" {
				date = calendar.Today(calendar.System)
			}
			base := models.Transaction{
				Description: desc,
				Amount:      value,
				Type:        models.TransactionType(txType),
				Date:        date,
				Category:    category,
				AccountID:   account,
			}

			return withClient(cmd.Context(), func(c *client) error {
				if _, err := c.active(); err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if installment == "" {
					saved, err := c.Transactions.Save(cmd.Context(), &base)
					if err != nil {
						return err
					}
					fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("Recorded %s on %s.", money(saved.Amount), saved.Date)))
					return nil
				}

				number, total, err := parseInstallment(installment)
				if err != nil {
					return err
				}
				rows, err := c.Transactions.AddSeries(cmd.Context(), base, number, total)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("Recorded %d installments, last one on %s.", len(rows), rows[len(rows)-1].Date)))
				return nil
			})
		},
	}
	add.Flags().StringVar(&desc, "desc", "", "description")
	add.Flags().StringVar(&amount, "amount", "", "amount; the sign follows the type")
	add.Flags().StringVar(&txType, "type", string(models.TransactionTypeExpense), "income, expense or credit_card")
	add.Flags().StringVar(&date, "date", "", "YYYY-MM-DD (default today)")
	add.Flags().StringVar(&category, "category", "", "category name")
	add.Flags().StringVar(&account, "account", "", "bank account id")
	add.Flags().StringVar(&installment, "installment", "", "first installment and total, e.g. 1/12")
	_ = add.MarkFlagRequired("desc")
	_ = add.MarkFlagRequired("amount")
	_ = add.MarkFlagRequired("account")
	cmd.AddCommand(add)

	cmd.AddCommand(deleteCmd("transaction", func(c *client) deleter { return c.Transactions }))
	return cmd
}

// parseInstallment parses "N/M".
func parseInstallment(s string) (int, int, error) {
	a, b, ok := strings.Cut(s, "/")
	if !ok {
		return 0, 0, fmt.Errorf("installment must look like 1/12, got %q", s)
	}
	number, err := strconv.Atoi(strings.TrimSpace(a))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid installment number %q", a)
	}
	total, err := strconv.Atoi(strings.TrimSpace(b))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid installment total %q", b)
	}
	return number, total, nil
}

func money(d decimal.Decimal) string {
	s := d.StringFixed(2)
	if d.IsNegative() {
		return expenseStyle.Render(s)
	}
	return incomeStyle.Render(s)
}

type deleter interface {
	Delete(ctx context.Context, id string) error
}

func deleteCmd(noun string, target func(*client) deleter) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a " + noun,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(c *client) error {
				if _, err := c.active(); err != nil {
					return err
				}
				if err := target(c).Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), subtleStyle.Render(fmt.Sprintf("Deleted %s %s.", noun, args[0])))
				return nil
			})
		},
	}
}
