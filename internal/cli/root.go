// Package cli implements the todo-bridge CLI commands.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/rcliao/todo-bridge/internal/auth"
	"github.com/rcliao/todo-bridge/internal/client"
	"github.com/rcliao/todo-bridge/internal/config"
	"github.com/rcliao/todo-bridge/internal/gateway"
	"github.com/rcliao/todo-bridge/internal/logging"
	"github.com/rcliao/todo-bridge/internal/model"
	"github.com/rcliao/todo-bridge/internal/store"
)

// Version is set at build time.
var Version = "dev"

var (
	configPath string
	dbPath     string
	formatFlag string
	tokenFlag  string
	apiURLFlag string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:     "todo-bridge",
	Short:   "Task tracker with a chat assistant",
	Long:    "Manage tasks from the command line, over HTTP (serve), through chat, or as MCP tools. SQLite-backed, single binary.",
	Version: Version,
}

func init() {
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: $"+config.EnvConfig+")")
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $"+config.EnvDB+" or ~/.todo-bridge/todo.db)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json or text")
	RootCmd.PersistentFlags().StringVar(&tokenFlag, "token", "", "Bearer token (default: $"+config.EnvToken+")")
	RootCmd.PersistentFlags().StringVar(&apiURLFlag, "api-url", "", "Talk to a todo-bridge server instead of the local database (default: $"+config.EnvAPIURL+")")
}

// loadConfig applies flags on top of the file and environment.
func loadConfig() *config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		exitErr("load config", err)
	}
	if dbPath != "" {
		cfg.Store.Path = dbPath
	}
	if tokenFlag != "" {
		cfg.Client.Token = tokenFlag
	}
	if apiURLFlag != "" {
		cfg.Client.APIURL = apiURLFlag
	}
	return cfg
}

func newLogger(cfg *config.Config) *slog.Logger {
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		exitErr("logger", err)
	}
	return logger
}

func openStore(cfg *config.Config) (*store.SQLiteStore, error) {
	return store.NewSQLiteStore(cfg.Store.Path, store.WithTimeout(cfg.Store.Timeout))
}

func verifierFor(cfg *config.Config) *auth.Verifier {
	if cfg.Auth.Secret == "" {
		return nil
	}
	return auth.NewVerifier(cfg.Auth.Secret, cfg.Auth.Issuer)
}

// app is the wiring shared by the task commands: a gateway in front of
// either the local SQLite store or a remote server.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	local   *store.SQLiteStore
	remote  *client.Client
	search  store.TaskSearcher
	gateway *gateway.Gateway
}

func openApp() *app {
	cfg := loadConfig()
	logger := newLogger(cfg)
	a := &app{cfg: cfg, logger: logger}

	source := auth.TokenSource(cfg.Client.Token)
	if cfg.Client.APIURL != "" {
		// the server verifies the token
		bridge := auth.NewBridge(source, nil, logger)
		a.remote = client.New(cfg.Client.APIURL, bridge, cfg.Client.Timeout)
		a.search = a.remote
		a.gateway = gateway.New(a.remote, bridge, logger)
		return a
	}

	s, err := openStore(cfg)
	if err != nil {
		exitErr("open store", err)
	}
	a.local = s
	a.search = s
	a.gateway = gateway.New(s, localBridge(cfg, source, logger), logger)
	return a
}

// localBridge verifies tokens when a secret is configured. Without one it
// falls back to the token's unverified sub claim and says so.
func localBridge(cfg *config.Config, source auth.SessionSource, logger *slog.Logger) *auth.Bridge {
	verifier := verifierFor(cfg)
	if verifier == nil {
		logger.Warn("no auth secret configured, trusting the token's user id without checking its signature",
			"env", config.EnvSecret)
	}
	return auth.NewBridge(source, verifier, logger)
}

func (a *app) Close() {
	if a.local != nil {
		a.local.Close()
	}
}

// requireLocal exits when a command that reads the database directly is
// run against a remote server.
func (a *app) requireLocal(name string) *store.SQLiteStore {
	if a.local == nil {
		exitErr(name, errors.New("only available against the local database (drop --api-url)"))
	}
	return a.local
}

// whoami resolves the current user or exits.
func (a *app) whoami(cmd *cobra.Command) string {
	user, err := a.gateway.Whoami(cmd.Context())
	if err != nil {
		exitErr("authenticate", fmt.Errorf("%w (set --token or $%s; see `todo-bridge token`)", err, config.EnvToken))
	}
	return user
}

// run executes a gateway command as the current user or exits.
func (a *app) run(cmd *cobra.Command, c gateway.Command) *gateway.Result {
	user := a.whoami(cmd)
	res, err := a.gateway.Execute(cmd.Context(), user, c)
	if err != nil {
		exitErr(c.Name(), err)
	}
	return res
}

func exitErr(msg string, err error) {
	kind := model.Kind(err)
	if kind != "" && kind != model.KindInternal {
		fmt.Fprintf(os.Stderr, "error: %s: %v [%s]\n", msg, err, kind)
	} else {
		fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	}
	os.Exit(1)
}
