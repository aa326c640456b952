// Package cli wires configuration, logging and the API client into the
// codex command tree. With no subcommand on a terminal it starts the TUI.
package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"codex/internal/api"
	"codex/internal/auth"
	"codex/internal/config"
	"codex/internal/db"
	"codex/internal/logger"
	"codex/internal/styles"
	"codex/internal/ui"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const module = "cli"

// Version is overridden at build time with -ldflags.
var Version = "dev"

var errNoCredentials = errors.New("not signed in: set auth.email and auth.password (or CODEX_AUTH_EMAIL / CODEX_AUTH_PASSWORD)")

// app is the state shared by every subcommand of one invocation.
type app struct {
	out  io.Writer
	json bool

	configPath string
	baseURL    string

	cfg    *config.Config
	log    *logger.ZapLogger
	client *api.Client
	auth   *auth.Provider
}

// NewRootCmd builds the command tree writing to out.
func NewRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}

	root := &cobra.Command{
		Use:           "codex",
		Short:         "Chat with your PDF documents from the terminal",
		Long:          "Codex is a terminal client for the Codex AI document-chat service: upload PDFs, then ask questions answered from their content.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if !term.IsTerminal(int(os.Stdin.Fd())) {
				return cmd.Help()
			}
			return a.runTUI()
		},
	}
	root.SetOut(out)

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default ./codex.yaml or the user config dir)")
	root.PersistentFlags().StringVar(&a.baseURL, "base-url", "", "API base URL, overrides api.base_url")
	root.PersistentFlags().BoolVar(&a.json, "json", false, "Output in JSON format")

	root.AddCommand(
		a.sessionsCmd(),
		a.newCmd(),
		a.renameCmd(),
		a.deleteCmd(),
		a.uploadCmd(),
		a.askCmd(),
		a.historyCmd(),
		a.themeCmd(),
		a.versionCmd(),
	)
	return root
}

// Execute runs the command tree against the process's stdout.
func Execute() {
	root := NewRootCmd(os.Stdout)
	if err := root.Execute(); err != nil {
		if jsonRequested(root) {
			printError(os.Stdout, true, err)
		} else {
			printError(os.Stderr, false, err)
		}
		os.Exit(1)
	}
}

func jsonRequested(root *cobra.Command) bool {
	v, err := root.PersistentFlags().GetBool("json")
	return err == nil && v
}

func (a *app) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.baseURL != "" {
		cfg.API.BaseURL = a.baseURL
	}
	a.cfg = cfg

	log, err := logger.NewFileLogger(cfg.Log.File, cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	a.log = log

	client, err := api.New(cfg.API.BaseURL,
		api.WithLogger(log),
		api.WithUserAgent("codex/"+Version),
	)
	if err != nil {
		return err
	}
	a.client = client
	a.auth = auth.NewProvider(client, log)
	return nil
}

func (a *app) openDB() (*sql.DB, error) {
	conn, err := db.OpenCodexDB(a.cfg.DB.Path)
	if err != nil {
		return nil, fmt.Errorf("open preferences: %w", err)
	}
	return conn, nil
}

func (a *app) runTUI() error {
	conn, err := a.openDB()
	if err != nil {
		// the TUI still works without persisted preferences
		a.log.Warn(module, "preferences unavailable", map[string]interface{}{"error": err})
		conn = nil
	}
	if conn != nil {
		defer conn.Close()
	}

	darkDefault := styles.DetectDark()
	switch a.cfg.Theme.Default {
	case db.ThemeDark:
		darkDefault = true
	case db.ThemeLight:
		darkDefault = false
	}

	a.log.Info(module, "starting tui", map[string]interface{}{"base_url": a.cfg.API.BaseURL})
	p := ui.NewProgram(ui.Options{
		Backend:     a.client,
		Auth:        a.auth,
		DB:          conn,
		Log:         a.log,
		DarkDefault: darkDefault,
		Email:       a.cfg.Auth.Email,
	})
	_, err = p.Run()
	return err
}

// signIn reuses a live cookie when there is one and otherwise logs in with
// the configured credentials.
func (a *app) signIn(ctx context.Context) error {
	if a.auth.Probe(ctx) == auth.Authenticated {
		return nil
	}
	if a.cfg.Auth.Email == "" || a.cfg.Auth.Password == "" {
		return errNoCredentials
	}
	err := a.auth.Login(ctx, auth.LoginForm{Email: a.cfg.Auth.Email, Password: a.cfg.Auth.Password})
	if api.IsStatus(err, http.StatusUnauthorized) {
		return fmt.Errorf("sign-in rejected for %s: %w", a.cfg.Auth.Email, err)
	}
	return err
}
