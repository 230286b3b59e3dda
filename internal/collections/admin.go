package collections

import (
	"context"
	"sort"

	"github.com/marcosbarbosa-dev/appfinance/internal/connectivity"
	apperrors "github.com/marcosbarbosa-dev/appfinance/internal/errors"
	"github.com/marcosbarbosa-dev/appfinance/internal/models"
	"github.com/marcosbarbosa-dev/appfinance/internal/services"
)

// directory is the admin view of the users table.
type directory struct {
	svc   services.UserServicer
	actor *models.User
}

// ForAdmin binds the user directory to actor.
func ForAdmin(svc services.UserServicer, actor *models.User) Backend[models.User] {
	return &directory{svc: svc, actor: actor}
}

func (d *directory) List(ctx context.Context) ([]models.User, error) {
	return d.svc.ListUsers(ctx)
}

// Save creates a user when row has no uid and applies an edit otherwise.
func (d *directory) Save(ctx context.Context, row *models.User) (*models.User, error) {
	if row.UID == "" {
		return d.svc.CreateUser(ctx, d.actor, services.CreateUserInput{
			Username:       row.Username,
			Name:           row.Name,
			Role:           row.Role,
			Avatar:         row.Avatar,
			SuspensionDate: row.SuspensionDate,
		})
	}
	return d.svc.UpdateUser(ctx, d.actor, row.UID, services.UpdateUserInput{
		Name:           &row.Name,
		Role:           &row.Role,
		IsActive:       &row.IsActive,
		Avatar:         &row.Avatar,
		SuspensionDate: &row.SuspensionDate,
	})
}

func (d *directory) SaveBatch(ctx context.Context, rows []models.User) ([]models.User, error) {
	out := make([]models.User, 0, len(rows))
	for i := range rows {
		saved, err := d.Save(ctx, &rows[i])
		if err != nil {
			return out, err
		}
		out = append(out, *saved)
	}
	return out, nil
}

func (d *directory) Delete(ctx context.Context, uid string) error {
	return d.svc.DeleteUser(ctx, d.actor, uid)
}

// Users mirrors the user directory of an admin session.
type Users struct {
	*Collection[models.User, *models.User]
}

// NewUsers creates an empty user directory mirror.
func NewUsers(online connectivity.Checker) *Users {
	return &Users{New[models.User, *models.User](models.User{}.TableName(), online)}
}

// ResetPassword restores the default password of uid.
func (u *Users) ResetPassword(ctx context.Context, uid string) (*models.User, error) {
	return u.act(ctx, uid, func(d *directory) (*models.User, error) {
		return d.svc.ResetPassword(ctx, d.actor, uid)
	})
}

// ForceRefresh makes the open session of uid reload.
func (u *Users) ForceRefresh(ctx context.Context, uid string) (*models.User, error) {
	return u.act(ctx, uid, func(d *directory) (*models.User, error) {
		return d.svc.ForceRefresh(ctx, d.actor, uid)
	})
}

func (u *Users) act(ctx context.Context, uid string, fn func(*directory) (*models.User, error)) (*models.User, error) {
	b, rev, err := u.writable(ctx)
	if err != nil {
		return nil, err
	}
	d, ok := b.(*directory)
	if !ok {
		return nil, apperrors.ErrForbidden
	}
	user, err := fn(d)
	if err != nil {
		return nil, err
	}
	u.put(rev, *user)
	out := *user
	return &out, nil
}

// RecentLogLimit is how many audit entries the admin view keeps.
const RecentLogLimit = 100

// auditTrail is the admin view of the logs table.
type auditTrail struct {
	svc   services.AuditServicer
	actor *models.User
	limit int
}

// ForAudit binds the audit trail to actor.
func ForAudit(svc services.AuditServicer, actor *models.User) Backend[models.SystemLog] {
	return &auditTrail{svc: svc, actor: actor, limit: RecentLogLimit}
}

func (a *auditTrail) List(ctx context.Context) ([]models.SystemLog, error) {
	return a.svc.Recent(ctx, a.limit)
}

// Save records row's action and details as the actor. Entries are never
// edited.
func (a *auditTrail) Save(ctx context.Context, row *models.SystemLog) (*models.SystemLog, error) {
	if row.ID != "" {
		return nil, apperrors.WithMessage(apperrors.ErrForbidden, "audit entries cannot be edited")
	}
	entry, err := a.svc.Record(ctx, a.actor, row.Action, row.Details)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, apperrors.WithMessage(apperrors.ErrForbidden, "audit logging is disabled")
	}
	return entry, nil
}

func (a *auditTrail) SaveBatch(ctx context.Context, rows []models.SystemLog) ([]models.SystemLog, error) {
	out := make([]models.SystemLog, 0, len(rows))
	for i := range rows {
		entry, err := a.Save(ctx, &rows[i])
		if err != nil {
			return out, err
		}
		out = append(out, *entry)
	}
	return out, nil
}

func (a *auditTrail) Delete(ctx context.Context, id string) error {
	return a.svc.Delete(ctx, a.actor, id)
}

// Logs mirrors the recent audit entries of an admin session.
type Logs struct {
	*Collection[models.SystemLog, *models.SystemLog]
}

// NewLogs creates an empty audit mirror.
func NewLogs(online connectivity.Checker) *Logs {
	return &Logs{New[models.SystemLog, *models.SystemLog](models.SystemLog{}.TableName(), online)}
}

// Record appends an entry for action.
func (l *Logs) Record(ctx context.Context, action models.LogAction, details string) (*models.SystemLog, error) {
	return l.Save(ctx, &models.SystemLog{Action: action, Details: details})
}

// Clear removes every entry remotely, then empties the mirror.
func (l *Logs) Clear(ctx context.Context) (int64, error) {
	b, rev, err := l.writable(ctx)
	if err != nil {
		return 0, err
	}
	trail, ok := b.(*auditTrail)
	if !ok {
		return 0, apperrors.ErrForbidden
	}
	n, err := trail.svc.Clear(ctx, trail.actor)
	if err != nil {
		return 0, err
	}

	l.mu.Lock()
	if l.current(rev) {
		l.clearLocked()
	}
	l.mu.Unlock()
	return n, nil
}

// Newest returns the mirrored entries, newest first.
func (l *Logs) Newest() []models.SystemLog {
	logs := l.All()
	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].Timestamp.After(logs[j].Timestamp)
	})
	return logs
}
