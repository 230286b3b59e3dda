package services

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/marcosbarbosa-dev/appfinance/internal/calendar"
	apperrors "github.com/marcosbarbosa-dev/appfinance/internal/errors"
	"github.com/marcosbarbosa-dev/appfinance/internal/models"
	"github.com/marcosbarbosa-dev/appfinance/internal/pagination"
)

// Labels used for references to deleted accounts and categories.
const (
	UnknownAccount  = "Unknown account"
	UnknownCategory = "Unknown category"
)

// reportService builds reports from the collection services.
type reportService struct {
	transactions TransactionServicer
	accounts     AccountServicer
	categories   CategoryServicer
}

// NewReportService creates a new ReportServicer.
func NewReportService(transactions TransactionServicer, accounts AccountServicer, categories CategoryServicer) ReportServicer {
	return &reportService{transactions: transactions, accounts: accounts, categories: categories}
}

// Monthly builds the report of a "YYYY-MM" month.
func (s *reportService) Monthly(ctx context.Context, uid, month string) (*MonthlyReport, error) {
	from, to, err := calendar.MonthRange(month)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "month must be YYYY-MM")
	}

	var txs []models.Transaction
	page := pagination.PageRequest{Page: 1, PageSize: 100}
	for {
		res, err := s.transactions.List(ctx, uid, page, TransactionFilter{FromDate: from, ToDate: to})
		if err != nil {
			return nil, err
		}
		txs = append(txs, res.Data...)
		if page.Page >= res.TotalPages {
			break
		}
		page.Page++
	}

	accounts, err := s.accounts.ListForUser(ctx, uid)
	if err != nil {
		return nil, err
	}
	categories, err := s.categories.ListForUser(ctx, uid)
	if err != nil {
		return nil, err
	}

	report := BuildMonthlyReport(month, txs, accounts, categories)
	return &report, nil
}

// BuildMonthlyReport aggregates txs. References that no longer resolve are
// grouped under UnknownAccount or UnknownCategory.
func BuildMonthlyReport(month string, txs []models.Transaction, accounts []models.BankAccount, categories []models.Category) MonthlyReport {
	accountNames := make(map[string]string, len(accounts))
	for _, a := range accounts {
		accountNames[a.ID] = a.Name
	}
	categoryNames := make(map[string]bool, len(categories))
	for _, c := range categories {
		categoryNames[c.Name] = true
	}

	report := MonthlyReport{Month: month, Income: decimal.Zero, Expense: decimal.Zero}
	byAccount := map[string]*ReportLine{}
	byCategory := map[string]*ReportLine{}

	for _, tx := range txs {
		if tx.Amount.IsPositive() {
			report.Income = report.Income.Add(tx.Amount)
			continue
		}
		out := tx.Amount.Abs()
		report.Expense = report.Expense.Add(out)

		key, label := tx.AccountID, accountNames[tx.AccountID]
		if label == "" {
			key, label = "", UnknownAccount
		}
		addTo(byAccount, key, label, out)

		key, label = tx.Category, tx.Category
		if !categoryNames[tx.Category] {
			key, label = "", UnknownCategory
		}
		addTo(byCategory, key, label, out)
	}

	report.Balance = report.Income.Sub(report.Expense)
	report.ByAccount = sortedLines(byAccount)
	report.ByCategory = sortedLines(byCategory)
	return report
}

func addTo(lines map[string]*ReportLine, key, label string, amount decimal.Decimal) {
	line, ok := lines[key]
	if !ok {
		line = &ReportLine{Key: key, Label: label, Total: decimal.Zero}
		lines[key] = line
	}
	line.Total = line.Total.Add(amount)
}

func sortedLines(lines map[string]*ReportLine) []ReportLine {
	out := make([]ReportLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Total.Cmp(out[j].Total); c != 0 {
			return c > 0
		}
		return out[i].Label < out[j].Label
	})
	return out
}
