package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/krishn-cti/remit-go/internal/api/dispatch_api"
)

type remitAPIOpts struct {
	httpAddr string

	onListen func(httpAddr string)
}

func runRemitAPI(ctx context.Context, opts remitAPIOpts, api *dispatch_api.DispatchAPI) error {
	lis, err := net.Listen("tcp", opts.httpAddr)
	if err != nil {
		return err
	}
	if opts.onListen != nil {
		opts.onListen(lis.Addr().String())
	}

	srv := &http.Server{Handler: api.Routes()}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(lis)
	}()

	slog.Info("HTTP server listening", "addr", lis.Addr().String())

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}
