package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/marcosbarbosa-dev/appfinance/internal/config"
	"github.com/marcosbarbosa-dev/appfinance/internal/database"
	"github.com/marcosbarbosa-dev/appfinance/internal/logger"
	"github.com/marcosbarbosa-dev/appfinance/internal/services"
	"github.com/marcosbarbosa-dev/appfinance/internal/store"
)

func main() {
	logger.Init(os.Getenv("ENV"), os.Getenv("LOG_LEVEL"))
	defer logger.Sync()

	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	fs.SetOutput(stderr)

	username := fs.String("user", "", "Username of the administrator")
	name := fs.String("name", "", "Display name (defaults to the username)")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")
	sqlitePath := fs.String("sqlite", "", "Use the SQLite database at this path instead of the configured one")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *username == "" {
		fmt.Fprintln(stdout, "Usage: adduser -user <username> [-name <name>] [-password <password>] [-sqlite <path>]")
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: user")
	}

	password := *passwordFlag
	if password == "" {
		fmt.Fprint(stdout, "Password (empty for the default, changed at first sign-in): ")
		var err error
		password, err = readPassword(stdin)
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(stdout)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	dbCfg := database.NewConfig(cfg)
	if *sqlitePath != "" {
		dbCfg.Driver = database.DriverSQLite
		dbCfg.SQLitePath = *sqlitePath
	}

	dbm, err := database.NewManager(dbCfg)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := dbm.Close(); err != nil {
			logger.Get().Warnw("database close failed", "error", err)
		}
	}()
	if err := dbm.RunMigrations(); err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	svc := services.NewSet(store.NewGormStore(dbm.DB()))
	admin, created, err := svc.Users.EnsureAdmin(context.Background(), *username, *name, password)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	if !created {
		return fmt.Errorf("user %s already exists", admin.Username)
	}

	fmt.Fprintf(stdout, "Administrator %s created successfully with ID %s\n", admin.Username, admin.UID)
	if admin.IsFirstLogin {
		fmt.Fprintln(stdout, "The password is the username; a new one is required at first sign-in.")
	}
	return nil
}

func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	// Pipes and tests.
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
