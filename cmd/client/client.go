package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/marcosbarbosa-dev/appfinance/internal/app"
	"github.com/marcosbarbosa-dev/appfinance/internal/config"
	"github.com/marcosbarbosa-dev/appfinance/internal/connectivity"
	"github.com/marcosbarbosa-dev/appfinance/internal/database"
	apperrors "github.com/marcosbarbosa-dev/appfinance/internal/errors"
	"github.com/marcosbarbosa-dev/appfinance/internal/logger"
	"github.com/marcosbarbosa-dev/appfinance/internal/models"
	"github.com/marcosbarbosa-dev/appfinance/internal/session"
	"github.com/marcosbarbosa-dev/appfinance/internal/store"
)

// client is one command's view of the store.
type client struct {
	*app.App
	db *database.Manager
}

// openClient connects to the store, resumes the persisted session and
// applies the current configuration and user record to it.
func openClient(ctx context.Context) (*client, error) {
	dbCfg := database.NewConfig(config.Get())
	dbCfg.Driver = viper.GetString("database.driver")
	dbCfg.SQLitePath = viper.GetString("database.sqlite_path")

	dbm, err := database.NewManager(dbCfg)
	if err != nil {
		return nil, err
	}
	if err := dbm.RunMigrations(); err != nil {
		_ = dbm.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	st := store.NewGormStore(dbm.DB())
	a := app.New(st, app.Options{
		Identity: session.NewFileIdentityStore(viper.GetString("session.file")),
		Online: connectivity.All{
			connectivity.NewToggle(!viper.GetBool("offline")),
			connectivity.NewProbe(st, 0),
		},
		SyncInterval: viper.GetDuration("sync.interval"),
		LogoutDelay:  viper.GetDuration("session.logout_delay"),
	})
	c := &client{App: a, db: dbm}

	if _, err := a.Session.Restore(ctx); err != nil {
		c.Close()
		return nil, err
	}
	if err := a.Sync.SyncGlobal(ctx); err != nil {
		logger.Get().Warnw("config sync failed", "error", err)
	}
	if err := a.Sync.SyncUser(ctx); err != nil {
		logger.Get().Warnw("user sync failed", "error", err)
	}
	return c, nil
}

func (c *client) Close() {
	c.App.Close()
	if err := c.db.Close(); err != nil {
		logger.Get().Warnw("database close failed", "error", err)
	}
}

// active returns the signed-in user of an active session.
func (c *client) active() (*models.User, error) {
	switch c.Session.State() {
	case session.Active:
		return c.Session.User(), nil
	case session.FirstLoginRequired:
		return nil, errors.New(`choose a new password first with "appfinance password"`)
	}
	if reason := c.Session.Reason(); reason != "" {
		return nil, errors.New(reason)
	}
	return nil, errors.New(`not signed in, run "appfinance login"`)
}

// admin returns the signed-in user when it is an administrator.
func (c *client) admin() (*models.User, error) {
	user, err := c.active()
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}
	return user, nil
}

// withClient opens a client for the duration of fn.
func withClient(ctx context.Context, fn func(*client) error) error {
	c, err := openClient(ctx)
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(c)
}

// describe turns err into the message shown to the user.
func describe(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

// input reads answers from stdin. Consecutive prompts share one buffer so
// piped answers are not lost between them.
type input struct {
	r       io.Reader
	scanner *bufio.Scanner
}

func newInput(r io.Reader) *input {
	return &input{r: r, scanner: bufio.NewScanner(r)}
}

// line reads one trimmed line after printing label.
func (in *input) line(out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	s, err := in.next()
	return strings.TrimSpace(s), err
}

// secret reads a password without echo when stdin is a terminal.
func (in *input) secret(out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	if f, ok := in.r.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	return in.next()
}

func (in *input) next() (string, error) {
	if in.scanner.Scan() {
		return in.scanner.Text(), nil
	}
	if err := in.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
