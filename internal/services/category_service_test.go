package services

import (
	"context"
	"testing"

	"github.com/marcosbarbosa-dev/appfinance/internal/models"
	"github.com/marcosbarbosa-dev/appfinance/internal/testutil"
)

func TestCategoryService(t *testing.T) {
	ctx := context.Background()

	t.Run("save injects owner and round-trips", func(t *testing.T) {
		env := newTestEnv(t)
		user := testutil.CreateTestUser(t, env.db)

		saved, err := env.categories.Save(ctx, user.UID, &models.Category{Name: " Pets ", Type: models.CategoryTypeExpense, Icon: "paw", Color: "#111111"})
		testutil.AssertNoError(t, err)
		if saved.ID == "" || saved.Owner() != user.UID || saved.Name != "Pets" {
			t.Fatalf("unexpected saved category: %+v", saved)
		}

		got, err := env.categories.Get(ctx, user.UID, saved.ID)
		testutil.AssertNoError(t, err)
		if got.Name != saved.Name || got.Icon != saved.Icon || got.Color != saved.Color || got.Type != saved.Type {
			t.Errorf("expected %+v, got %+v", saved, got)
		}
	})

	t.Run("list includes shared but not foreign", func(t *testing.T) {
		env := newTestEnv(t)
		user := testutil.CreateTestUser(t, env.db)
		other := testutil.CreateTestUser(t, env.db)
		testutil.CreateTestCategory(t, env.db, user.UID, models.CategoryTypeExpense)
		testutil.CreateTestCategory(t, env.db, "", models.CategoryTypeIncome)
		testutil.CreateTestCategory(t, env.db, other.UID, models.CategoryTypeIncome)

		list, err := env.categories.ListForUser(ctx, user.UID)
		testutil.AssertNoError(t, err)
		if len(list) != 2 {
			t.Errorf("expected 2 categories, got %d", len(list))
		}
	})

	t.Run("cannot write someone else's category", func(t *testing.T) {
		env := newTestEnv(t)
		user := testutil.CreateTestUser(t, env.db)
		other := testutil.CreateTestUser(t, env.db)
		foreign := testutil.CreateTestCategory(t, env.db, other.UID, models.CategoryTypeIncome)

		foreign.UserID = nil
		foreign.Name = "Hijacked"
		_, err := env.categories.Save(ctx, user.UID, foreign)
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")

		_, err = env.categories.Save(ctx, user.UID, &models.Category{UserID: models.StringPtr(other.UID), Name: "x", Type: models.CategoryTypeIncome})
		testutil.AssertAppError(t, err, "FORBIDDEN")
	})

	t.Run("shared categories are read-only", func(t *testing.T) {
		env := newTestEnv(t)
		user := testutil.CreateTestUser(t, env.db)
		shared := testutil.CreateTestCategory(t, env.db, "", models.CategoryTypeIncome)

		err := env.categories.Delete(ctx, user.UID, shared.ID)
		testutil.AssertAppError(t, err, "FORBIDDEN")
	})

	t.Run("delete", func(t *testing.T) {
		env := newTestEnv(t)
		user := testutil.CreateTestUser(t, env.db)
		cat := testutil.CreateTestCategory(t, env.db, user.UID, models.CategoryTypeExpense)

		testutil.AssertNoError(t, env.categories.Delete(ctx, user.UID, cat.ID))
		_, err := env.categories.Get(ctx, user.UID, cat.ID)
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})

	t.Run("batch insert", func(t *testing.T) {
		env := newTestEnv(t)
		user := testutil.CreateTestUser(t, env.db)

		saved, err := env.categories.SaveBatch(ctx, user.UID, DefaultCategories(""))
		testutil.AssertNoError(t, err)
		for _, c := range saved {
			if c.ID == "" || c.Owner() != user.UID {
				t.Errorf("expected id and owner, got %+v", c)
			}
		}
	})

	t.Run("validation", func(t *testing.T) {
		env := newTestEnv(t)
		user := testutil.CreateTestUser(t, env.db)

		_, err := env.categories.Save(ctx, user.UID, &models.Category{Name: "", Type: models.CategoryTypeIncome})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
		_, err = env.categories.Save(ctx, user.UID, &models.Category{Name: "x", Type: "transfer"})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestAccountService(t *testing.T) {
	ctx := context.Background()

	t.Run("save and list", func(t *testing.T) {
		env := newTestEnv(t)
		user := testutil.CreateTestUser(t, env.db)

		acc, err := env.accounts.Save(ctx, user.UID, &models.BankAccount{Name: "Nubank", Type: models.AccountTypeCreditCard, BankName: "Nu"})
		testutil.AssertNoError(t, err)

		list, err := env.accounts.ListForUser(ctx, user.UID)
		testutil.AssertNoError(t, err)
		if len(list) != 1 || list[0].ID != acc.ID || list[0].BankName != "Nu" {
			t.Errorf("unexpected accounts: %+v", list)
		}
	})

	t.Run("update keeps id", func(t *testing.T) {
		env := newTestEnv(t)
		user := testutil.CreateTestUser(t, env.db)
		acc := testutil.CreateTestBankAccount(t, env.db, user.UID, models.AccountTypeSavings)

		acc.Name = "Reserva"
		_, err := env.accounts.Save(ctx, user.UID, acc)
		testutil.AssertNoError(t, err)

		got, err := env.accounts.Get(ctx, user.UID, acc.ID)
		testutil.AssertNoError(t, err)
		if got.Name != "Reserva" {
			t.Errorf("expected renamed account, got %s", got.Name)
		}
	})

	t.Run("default accounts can be deleted", func(t *testing.T) {
		env := newTestEnv(t)
		user := testutil.CreateTestUser(t, env.db)
		saved, err := env.accounts.SaveBatch(ctx, user.UID, DefaultAccounts(user.UID))
		testutil.AssertNoError(t, err)

		testutil.AssertNoError(t, env.accounts.Delete(ctx, user.UID, saved[0].ID))
	})

	t.Run("invalid type", func(t *testing.T) {
		env := newTestEnv(t)
		user := testutil.CreateTestUser(t, env.db)
		_, err := env.accounts.Save(ctx, user.UID, &models.BankAccount{Name: "x", Type: "debt"})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}
