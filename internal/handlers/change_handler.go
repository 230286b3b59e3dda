package handlers

import (
	"errors"
	"io"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/marcosbarbosa-dev/appfinance/internal/errors"
	"github.com/marcosbarbosa-dev/appfinance/internal/logger"
	"github.com/marcosbarbosa-dev/appfinance/internal/models"
	"github.com/marcosbarbosa-dev/appfinance/internal/services"
	"github.com/marcosbarbosa-dev/appfinance/internal/store"
)

const changeBuffer = 64

// ChangeHandler streams committed row changes to signed-in clients as
// server-sent events, so their mirrors stay current without polling.
type ChangeHandler struct {
	store     store.Store
	users     services.UserServicer
	heartbeat time.Duration
}

// NewChangeHandler creates a new ChangeHandler. The session is checked again
// on every heartbeat.
func NewChangeHandler(st store.Store, users services.UserServicer, heartbeat time.Duration) *ChangeHandler {
	if heartbeat <= 0 {
		heartbeat = 30 * time.Second
	}
	return &ChangeHandler{store: st, users: users, heartbeat: heartbeat}
}

type ownedRow interface {
	VisibleTo(uid string) bool
}

// Stream subscribes to every table the user may read and forwards the
// changes they are allowed to see. A slow client loses events rather than
// blocking writers; it should reload its mirrors on reconnect. The stream
// ends with an "end" event once the session is no longer valid or the
// user's role changed.
func (h *ChangeHandler) Stream(c *gin.Context) {
	user, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	events := make(chan store.Event, changeBuffer)
	listener := func(ev store.Event) {
		if !visibleTo(ev, user) {
			return
		}
		select {
		case events <- ev:
		default:
			logger.Get().Warnw("change stream overflow, dropping event",
				"user_id", user.UID,
				"table", ev.Table,
			)
		}
	}
	for _, table := range streamTables(user) {
		cancel := h.store.Subscribe(table, listener)
		defer cancel()
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.SSEvent("ready", gin.H{"user_id": user.UID})
	c.Writer.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	ctx := c.Request.Context()
	c.Stream(func(io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ev := <-events:
			c.SSEvent(string(ev.Type), ev)
			return true
		case <-ticker.C:
			if err := h.recheck(c, user); err != nil {
				c.SSEvent("end", endPayload(err))
				logger.Get().Infow("change stream closed", "user_id", user.UID, "reason", err.Error())
				return false
			}
			c.SSEvent("ping", time.Now().UTC().Format(time.RFC3339))
			return true
		}
	})
}

// recheck reloads the user behind an open stream. The subscriptions were
// chosen for the role at connect time, so a role change ends the stream.
func (h *ChangeHandler) recheck(c *gin.Context, user *models.User) error {
	fresh, err := h.users.ValidateSession(c.Request.Context(), user.UID)
	if err != nil {
		return err
	}
	if fresh.IsFirstLogin {
		return apperrors.ErrFirstLoginRequired
	}
	if fresh.Role != user.Role {
		return apperrors.WithMessage(apperrors.ErrStaleSession, "Your permissions changed")
	}
	return nil
}

func endPayload(err error) gin.H {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		appErr = apperrors.ErrInternalServer
	}
	return gin.H{"code": appErr.Code, "message": appErr.Message}
}

func streamTables(user *models.User) []string {
	tables := []string{
		models.Category{}.TableName(),
		models.BankAccount{}.TableName(),
		models.Transaction{}.TableName(),
		models.User{}.TableName(),
		models.SystemConfig{}.TableName(),
	}
	if user.IsAdmin() {
		tables = append(tables, models.SystemLog{}.TableName())
	}
	return tables
}

// visibleTo applies the read rules of the REST endpoints to a change event.
func visibleTo(ev store.Event, user *models.User) bool {
	row := ev.New
	if row == nil {
		row = ev.Old
	}
	switch r := row.(type) {
	case ownedRow:
		return r.VisibleTo(user.UID)
	case *models.User:
		return user.IsAdmin() || r.UID == user.UID
	case *models.SystemLog:
		return user.IsAdmin()
	case *models.SystemConfig:
		return true
	default:
		return false
	}
}
