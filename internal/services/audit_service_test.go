package services

import (
	"context"
	"testing"

	"github.com/marcosbarbosa-dev/appfinance/internal/models"
	"github.com/marcosbarbosa-dev/appfinance/internal/pagination"
	"github.com/marcosbarbosa-dev/appfinance/internal/testutil"
)

func TestAuditService(t *testing.T) {
	ctx := context.Background()

	t.Run("records admin actions with name at write time", func(t *testing.T) {
		env := newTestEnv(t)
		admin := testutil.CreateTestAdmin(t, env.db)

		entry, err := env.audit.Record(ctx, admin, models.ActionEditUser, "x")
		testutil.AssertNoError(t, err)
		if entry == nil || entry.ID == "" || entry.UserName != admin.Name || entry.Timestamp.IsZero() {
			t.Fatalf("unexpected entry: %+v", entry)
		}

		renamed := "Renamed"
		_, err = env.users.UpdateProfile(ctx, admin.UID, ProfileUpdate{Name: &renamed})
		testutil.AssertNoError(t, err)

		logs, err := env.audit.Recent(ctx, 10)
		testutil.AssertNoError(t, err)
		if logs[0].UserName != admin.Name {
			t.Errorf("expected historical name %s, got %s", admin.Name, logs[0].UserName)
		}
	})

	t.Run("ignores regular users", func(t *testing.T) {
		env := newTestEnv(t)
		user := testutil.CreateTestUser(t, env.db)

		entry, err := env.audit.Record(ctx, user, models.ActionLogin, "")
		testutil.AssertNoError(t, err)
		if entry != nil {
			t.Errorf("expected no entry, got %+v", entry)
		}
	})

	t.Run("delete and clear", func(t *testing.T) {
		env := newTestEnv(t)
		admin := testutil.CreateTestAdmin(t, env.db)
		first, _ := env.audit.Record(ctx, admin, models.ActionLogin, "")
		env.audit.Record(ctx, admin, models.ActionLogout, "")
		env.audit.Record(ctx, admin, models.ActionLogin, "")

		testutil.AssertNoError(t, env.audit.Delete(ctx, admin, first.ID))
		testutil.AssertAppError(t, env.audit.Delete(ctx, admin, first.ID), "LOG_NOT_FOUND")

		page, err := env.audit.List(ctx, pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if page.TotalItems != 2 {
			t.Errorf("expected 2 entries, got %d", page.TotalItems)
		}

		n, err := env.audit.Clear(ctx, admin)
		testutil.AssertNoError(t, err)
		if n != 2 || env.logCount(t) != 0 {
			t.Errorf("expected 2 removed and none left, got %d", n)
		}
	})

	t.Run("delete requires an admin session", func(t *testing.T) {
		env := newTestEnv(t)
		user := testutil.CreateTestUser(t, env.db)

		testutil.AssertAppError(t, env.audit.Delete(ctx, nil, "x"), "UNAUTHORIZED")
		_, err := env.audit.Clear(ctx, user)
		testutil.AssertAppError(t, err, "FORBIDDEN")
	})
}
