package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/marcosbarbosa-dev/appfinance/internal/config"
	"github.com/marcosbarbosa-dev/appfinance/internal/logger"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "appfinance",
		Short: "Personal finance client",
		Long: `appfinance keeps track of your categories, bank accounts and transactions.

Sign in once with "appfinance login"; the session is kept on disk until you
log out or an administrator ends it.`,
		PersistentPreRunE: initConfig,
		SilenceUsage:      true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/appfinance/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("offline", false, "refuse every change, as if the store were unreachable")

	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("offline", rootCmd.PersistentFlags().Lookup("offline"))

	rootCmd.AddCommand(loginCmd())
	rootCmd.AddCommand(logoutCmd())
	rootCmd.AddCommand(whoamiCmd())
	rootCmd.AddCommand(passwordCmd())
	rootCmd.AddCommand(profileCmd())
	rootCmd.AddCommand(categoriesCmd())
	rootCmd.AddCommand(accountsCmd())
	rootCmd.AddCommand(txCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(usersCmd())
	rootCmd.AddCommand(logsCmd())
	rootCmd.AddCommand(systemCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logger.Sync()

	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(describe(err)))
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		viper.AddConfigPath(filepath.Join(home, ".config", "appfinance"))
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("APPFINANCE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	// Process-level settings come from the environment the API also uses;
	// the config file and APPFINANCE_* variables override them.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	viper.SetDefault("session.file", cfg.SessionFile)
	viper.SetDefault("session.logout_delay", cfg.SessionLogoutDelay)
	viper.SetDefault("sync.interval", cfg.SyncInterval)
	viper.SetDefault("database.driver", cfg.DBDriver)
	viper.SetDefault("database.sqlite_path", cfg.SQLitePath)

	logger.Init(cfg.Env, viper.GetString("log.level"))
	return nil
}
