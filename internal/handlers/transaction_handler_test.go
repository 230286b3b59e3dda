package handlers

import (
	"net/http"
	"testing"

	"github.com/marcosbarbosa-dev/appfinance/internal/models"
	"github.com/marcosbarbosa-dev/appfinance/internal/testutil"
)

func TestTransactionHandler_CreateTransaction(t *testing.T) {
	t.Run("normalises the amount sign", func(t *testing.T) {
		env := newHandlerEnv(t)
		user := testutil.CreateTestUser(t, env.db)
		r := env.router(user)

		rec := doRequest(r, "POST", "/transactions",
			`{"description":"Lunch","amount":"25.50","type":"expense","date":"2026-03-10","category":"Food"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		tx := dataOf(t, parseJSON(t, rec), "transaction")
		if tx["amount"] != "-25.5" {
			t.Errorf("expected -25.5, got %v", tx["amount"])
		}
		if tx["user_id"] != user.UID {
			t.Errorf("expected owner %s, got %v", user.UID, tx["user_id"])
		}
	})

	t.Run("rejects bad date and type", func(t *testing.T) {
		env := newHandlerEnv(t)
		r := env.router(testutil.CreateTestUser(t, env.db))

		for _, body := range []string{
			`{"description":"x","amount":"1","type":"expense","date":"10/03/2026"}`,
			`{"description":"x","amount":"1","type":"transfer","date":"2026-03-10"}`,
			`{"description":"x","amount":"0","type":"expense","date":"2026-03-10"}`,
		} {
			rec := doRequest(r, "POST", "/transactions", body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("%s: expected 400, got %d", body, rec.Code)
			}
		}
	})

	t.Run("credit card needs a card account", func(t *testing.T) {
		env := newHandlerEnv(t)
		user := testutil.CreateTestUser(t, env.db)
		checking := testutil.CreateTestBankAccount(t, env.db, user.UID, models.AccountTypeChecking)
		r := env.router(user)

		rec := doRequest(r, "POST", "/transactions",
			`{"description":"TV","amount":"100","type":"credit_card","date":"2026-03-10","account_id":"`+checking.ID+`"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestTransactionHandler_CreateSeries(t *testing.T) {
	t.Run("creates the remaining installments", func(t *testing.T) {
		env := newHandlerEnv(t)
		user := testutil.CreateTestUser(t, env.db)
		card := testutil.CreateTestBankAccount(t, env.db, user.UID, models.AccountTypeCreditCard)
		r := env.router(user)

		rec := doRequest(r, "POST", "/transactions/series",
			`{"description":"Phone","amount":"100","type":"credit_card","date":"2026-01-31","account_id":"`+card.ID+`","installment_number":2,"total_installments":4}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		series := parseJSON(t, rec)["transactions"].([]interface{})
		if len(series) != 3 {
			t.Fatalf("expected 3 installments, got %d", len(series))
		}
		first := series[0].(map[string]interface{})
		if first["description"] != "Phone (2/4)" || first["date"] != "2026-01-31" {
			t.Errorf("unexpected first installment: %v", first)
		}
		second := series[1].(map[string]interface{})
		if second["date"] != "2026-02-28" {
			t.Errorf("expected clamp to 2026-02-28, got %v", second["date"])
		}
	})

	t.Run("invalid range writes nothing", func(t *testing.T) {
		env := newHandlerEnv(t)
		user := testutil.CreateTestUser(t, env.db)
		r := env.router(user)

		rec := doRequest(r, "POST", "/transactions/series",
			`{"description":"Phone","amount":"100","type":"expense","date":"2026-01-31","installment_number":4,"total_installments":4}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INSTALLMENTS")

		var n int64
		env.db.Model(&models.Transaction{}).Count(&n)
		if n != 0 {
			t.Errorf("expected no transactions, got %d", n)
		}
	})
}

func TestTransactionHandler_GetUserTransactions(t *testing.T) {
	env := newHandlerEnv(t)
	user := testutil.CreateTestUser(t, env.db)
	other := testutil.CreateTestUser(t, env.db)
	acc := testutil.CreateTestBankAccount(t, env.db, user.UID, models.AccountTypeChecking)
	testutil.CreateTestTransaction(t, env.db, user.UID, acc.ID, models.TransactionTypeIncome, "1000", "2026-03-01")
	testutil.CreateTestTransaction(t, env.db, user.UID, acc.ID, models.TransactionTypeExpense, "50", "2026-03-15")
	testutil.CreateTestTransaction(t, env.db, user.UID, "", models.TransactionTypeExpense, "20", "2026-04-02")
	testutil.CreateTestTransaction(t, env.db, other.UID, "", models.TransactionTypeExpense, "99", "2026-03-05")
	r := env.router(user)

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"all own", "", 3},
		{"by type", "?type=expense", 2},
		{"by date range", "?from_date=2026-03-01&to_date=2026-03-31", 2},
		{"by account", "?account_id=" + acc.ID, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(r, "GET", "/transactions"+tt.query, "")
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
			}
			result := parseJSON(t, rec)
			if total := result["total_items"].(float64); int(total) != tt.want {
				t.Errorf("expected %d, got %v", tt.want, total)
			}
		})
	}

	t.Run("newest first", func(t *testing.T) {
		rec := doRequest(r, "GET", "/transactions?page_size=1", "")
		data := parseJSON(t, rec)["data"].([]interface{})
		if len(data) != 1 || data[0].(map[string]interface{})["date"] != "2026-04-02" {
			t.Errorf("unexpected first page: %v", data)
		}
	})

	t.Run("rejects bad filters", func(t *testing.T) {
		for _, q := range []string{"?type=transfer", "?from_date=2026-3-1", "?account_id=1", "?page_size=500"} {
			rec := doRequest(r, "GET", "/transactions"+q, "")
			if rec.Code != http.StatusBadRequest {
				t.Errorf("%s: expected 400, got %d", q, rec.Code)
			}
		}
	})
}

func TestTransactionHandler_UpdateAndDelete(t *testing.T) {
	env := newHandlerEnv(t)
	user := testutil.CreateTestUser(t, env.db)
	other := testutil.CreateTestUser(t, env.db)
	own := testutil.CreateTestTransaction(t, env.db, user.UID, "", models.TransactionTypeExpense, "10", "2026-03-01")
	foreign := testutil.CreateTestTransaction(t, env.db, other.UID, "", models.TransactionTypeExpense, "10", "2026-03-01")
	r := env.router(user)

	rec := doRequest(r, "PUT", "/transactions/"+own.ID,
		`{"description":"Salary","amount":"-3000","type":"income","date":"2026-03-05"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if tx := dataOf(t, parseJSON(t, rec), "transaction"); tx["amount"] != "3000" {
		t.Errorf("expected income to be positive, got %v", tx["amount"])
	}

	rec = doRequest(r, "GET", "/transactions/"+foreign.ID, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign transaction, got %d", rec.Code)
	}

	rec = doRequest(r, "DELETE", "/transactions/"+own.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	rec = doRequest(r, "DELETE", "/transactions/"+own.ID, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", rec.Code)
	}
}
