package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmorgan81/imagegen/internal/handler"
	"github.com/dmorgan81/imagegen/internal/inject"
	"github.com/dmorgan81/imagegen/internal/log"
	"github.com/samber/do"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(root *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the relay function as a local HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), root, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}

func runServe(ctx context.Context, root *rootOptions, addr string) error {
	logger := log.FromContextOrDiscard(ctx)
	injector := inject.Setup(ctx, root.cfg)
	defer func() { _ = injector.Shutdown() }()

	base := context.WithoutCancel(ctx)
	srv := &http.Server{
		Addr:              addr,
		Handler:           do.MustInvoke[*handler.Handler](injector),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return base },
	}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("relay listening", "addr", addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down relay")
		shutdownCtx, cancel := context.WithTimeout(base, shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return group.Wait()
}
