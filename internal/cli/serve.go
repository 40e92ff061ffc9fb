package cli

import (
	"context"
	"errors"
	"os"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/spf13/cobra"

	"github.com/rcliao/todo-bridge/internal/api"
	"github.com/rcliao/todo-bridge/internal/assistant"
	"github.com/rcliao/todo-bridge/internal/auth"
	"github.com/rcliao/todo-bridge/internal/conversation"
	"github.com/rcliao/todo-bridge/internal/gateway"
)

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the task and chat HTTP API",
		Long:  "Serve GET/POST /tasks, PUT/DELETE /tasks/{id} and POST /chat. Requests authenticate with a bearer token or session cookie signed with $BETTER_AUTH_SECRET.",
		Run:   runServe,
	}

	cmd.Flags().String("addr", "", "Listen address (default from config, :8000)")

	RootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, args []string) {
	addr, _ := cmd.Flags().GetString("addr")

	cfg := loadConfig()
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if err := cfg.RequireSecret(); err != nil {
		exitErr("serve", err)
	}
	logger := newLogger(cfg)

	s, err := openStore(cfg)
	if err != nil {
		exitErr("open store", err)
	}

	bridge := auth.NewBridge(auth.ContextSource{}, verifierFor(cfg), logger)
	gw := gateway.New(s, bridge, logger)
	asst := assistant.New(gw, conversation.NewService(s, logger), assistant.NewRuleInterpreter(s), cfg.Chat.HistoryBudget, logger)

	srv := api.New(api.Config{
		CORSOrigins:     cfg.Server.CORSOrigins,
		SessionCookie:   cfg.Auth.SessionCookie,
		SessionIDCookie: cfg.Auth.SessionIDCookie,
		AccessLog:       os.Stderr,
	}, gw, asst, logger)

	go func() {
		if err := srv.Listen(cfg.Server.Addr); err != nil {
			logger.Error("http server stopped", "error", err)
			s.Close()
			os.Exit(1)
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"http-server": func(ctx context.Context) error {
				logger.Info("graceful shutdown initiated")
				err := srv.Shutdown(ctx)
				return errors.Join(err, s.Close())
			},
		},
	)

	exitCode := <-wait
	logger.Info("server exited", "code", exitCode)
	os.Exit(exitCode)
}
