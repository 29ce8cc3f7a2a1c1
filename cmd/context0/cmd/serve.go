package cmd

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/CoderCouple/context0/config"
	"github.com/spf13/cobra"
)

func newServeCmd(params *rootParams) *cobra.Command {
	serverConfig := config.NewServerConfig()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Expose the memory engine over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if err := config.ResolveConfig(serverConfig); err != nil {
				return err
			}

			engine, logger, err := newEngine(cmd, params)
			if err != nil {
				return err
			}
			defer engine.Close()

			server := &http.Server{
				Addr:    fmt.Sprintf(":%d", serverConfig.Port),
				Handler: createServerHandler(engine, logger),
				BaseContext: func(l net.Listener) context.Context {
					return ctx
				},
			}

			go func() {
				<-ctx.Done()
				if err := server.Shutdown(context.WithoutCancel(ctx)); err != nil {
					logger.Error("failed to shutdown server", "error", err)
				}
			}()

			logger.Info("server started", "port", serverConfig.Port)
			defer logger.Info("server stopped")

			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&serverConfig.Port, "port", serverConfig.Port, "listen port")
	return cmd
}
