package commands

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/devemco/folio"
)

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the blog server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrinter(cmd)
			cfg := folio.ConfigFromEnv()
			if addr != "" {
				cfg.Addr = addr
			}
			if cfg.SessionSecret == "" {
				return p.Error("SESSION_SECRET is not set",
					"The profile cookie is signed and needs a secret.",
					"export SESSION_SECRET=$(openssl rand -hex 32)",
					"add SESSION_SECRET to a .env file in the working directory")
			}

			app := folio.New(cfg, folio.DefaultViews())
			defer app.Close()

			errCh := make(chan error, 1)
			go func() { errCh <- app.Start() }()
			p.Step("serving %s on %s (storage: %s)\n", cfg.Name, cfg.Addr, cfg.Storage.Driver)

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sig)

			select {
			case err := <-errCh:
				if err != nil {
					return p.Error("server stopped", err.Error())
				}
				return nil
			case <-sig:
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := app.Echo.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return p.Error("shutdown failed", err.Error())
			}
			p.Success("server stopped\n")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides ADDR)")
	return cmd
}
