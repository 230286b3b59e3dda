package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/marcosbarbosa-dev/appfinance/internal/models"
	"github.com/marcosbarbosa-dev/appfinance/internal/testutil"
)

func TestBuildMonthlyReport(t *testing.T) {
	accounts := []models.BankAccount{{Base: models.Base{ID: "a1"}, Name: "Carteira"}}
	categories := []models.Category{{Name: "Lazer"}}
	txs := []models.Transaction{
		{Amount: decimal.RequireFromString("1000"), AccountID: "a1", Category: "Salário"},
		{Amount: decimal.RequireFromString("-100"), AccountID: "a1", Category: "Lazer"},
		{Amount: decimal.RequireFromString("-50.5"), AccountID: "gone", Category: "Removed"},
	}

	r := BuildMonthlyReport("2024-03", txs, accounts, categories)

	if !r.Income.Equal(decimal.RequireFromString("1000")) || !r.Expense.Equal(decimal.RequireFromString("150.5")) {
		t.Errorf("unexpected totals: income %s expense %s", r.Income, r.Expense)
	}
	if !r.Balance.Equal(decimal.RequireFromString("849.5")) {
		t.Errorf("unexpected balance %s", r.Balance)
	}
	if len(r.ByAccount) != 2 || r.ByAccount[0].Label != "Carteira" || r.ByAccount[1].Label != UnknownAccount {
		t.Errorf("unexpected account breakdown: %+v", r.ByAccount)
	}
	if len(r.ByCategory) != 2 || r.ByCategory[0].Label != "Lazer" || r.ByCategory[1].Label != UnknownCategory {
		t.Errorf("unexpected category breakdown: %+v", r.ByCategory)
	}
}

func TestReportService_Monthly(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	user := testutil.CreateTestUser(t, env.db)
	acc := testutil.CreateTestBankAccount(t, env.db, user.UID, models.AccountTypeChecking)
	testutil.CreateTestTransaction(t, env.db, user.UID, acc.ID, models.TransactionTypeIncome, "500", "2024-03-01")
	testutil.CreateTestTransaction(t, env.db, user.UID, acc.ID, models.TransactionTypeExpense, "120", "2024-03-31")
	testutil.CreateTestTransaction(t, env.db, user.UID, acc.ID, models.TransactionTypeExpense, "999", "2024-04-01")

	r, err := env.reports.Monthly(ctx, user.UID, "2024-03")
	testutil.AssertNoError(t, err)
	if !r.Income.Equal(decimal.NewFromInt(500)) || !r.Expense.Equal(decimal.NewFromInt(120)) {
		t.Errorf("unexpected totals: %+v", r)
	}

	_, err = env.reports.Monthly(ctx, user.UID, "March")
	testutil.AssertAppError(t, err, "INVALID_INPUT")
}
