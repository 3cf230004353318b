package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ram70099/ChatBot/internal/chat"
	"github.com/ram70099/ChatBot/internal/logger"
	"github.com/ram70099/ChatBot/internal/mcpserver"
	"github.com/ram70099/ChatBot/internal/web"
)

func newRootCmd() *cobra.Command {
	var cfgPath string

	root := &cobra.Command{
		Use:           "chat",
		Short:         "Browser chat with a hosted model and a persistent local history",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), cfgPath)
		},
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file (default ./config.yaml, or $CONFIG_PATH)")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Serve the chat page",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), cfgPath)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "mcp",
		Short: "Serve the conversation as MCP tools over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCP(cfgPath)
		},
	})
	return root
}

func runServe(ctx context.Context, cfgPath string) error {
	a, err := setup(cfgPath)
	if err != nil {
		return err
	}
	defer a.close()

	sessions := chat.NewManager(a.store, a.model, a.options())
	srv := &http.Server{
		Addr:              a.cfg.Server.Addr(),
		Handler:           web.New(sessions, a.cfg.Chat.Title).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.L.Info("starting server", "address", "http://"+srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.L.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func runMCP(cfgPath string) error {
	// stdout carries the protocol
	logger.SetOutput(os.Stderr)

	a, err := setup(cfgPath)
	if err != nil {
		return err
	}
	defer a.close()

	sess, err := chat.NewSession("mcp", a.store, a.model, a.options())
	if err != nil {
		return err
	}
	return mcpserver.Serve(mcpserver.New(sess, version))
}
