package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"sharekindness/pkg/client"
)

var (
	serverURL   string
	sessionPath string
	timeout     time.Duration
	verbose     bool

	api      *client.Client
	sessions *client.BoltTokenStore
)

var rootCmd = &cobra.Command{
	Use:   "skctl",
	Short: "Command line client for the ShareKindness API",
	Long: `skctl talks to a ShareKindness server.

Log in once with "skctl login"; the session is kept in a local file and the
access token is refreshed automatically.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := zerolog.WarnLevel
		if verbose {
			level = zerolog.DebugLevel
		}
		logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

		path := sessionPath
		if path == "" {
			dir, err := os.UserConfigDir()
			if err != nil {
				return fmt.Errorf("resolve config dir: %w", err)
			}
			dir = filepath.Join(dir, "skctl")
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return fmt.Errorf("create config dir: %w", err)
			}
			path = filepath.Join(dir, "session.db")
		}
		store, err := client.OpenBoltTokenStore(path)
		if err != nil {
			return err
		}
		sessions = store

		c, err := client.New(serverURL, client.WithTokenStore(store), client.WithLogger(logger))
		if err != nil {
			return err
		}
		api = c
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if sessions != nil {
			_ = sessions.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", envOr("SHAREKINDNESS_URL", "http://localhost:8080"), "API base URL")
	rootCmd.PersistentFlags().StringVar(&sessionPath, "session", "", "session file (default: <config dir>/skctl/session.db)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "request timeout")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every request")

	rootCmd.AddCommand(registerCmd, loginCmd, logoutCmd)
	rootCmd.AddCommand(donationsCmd, requestsCmd, approveCmd, rejectCmd)
	rootCmd.AddCommand(dashboardCmd, notificationsCmd, profileCmd, passwordCmd, exportCmd, statsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), timeout)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
