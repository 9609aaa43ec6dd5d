// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/docbundle/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve conversions over HTTP",
	Long: `Serve starts an HTTP service. POST /api/convert accepts a multipart "file"
field or a "url" form value and returns the Markdown with a download link.
GET /api/downloads/{id} returns the archive and GET /api/bundles/{id}/preview
renders the Markdown as HTML. Archives are removed when the server stops.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.Default()
		cfg := conversionConfig(viper.GetViper(), loadedSecrets)
		srvCfg := serverConfig(viper.GetViper())

		api, err := server.NewServer(srvCfg, buildPipeline(cfg, logger), logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := api.Close(); err != nil {
				logger.Error("removing archives", "error", err)
			}
		}()

		httpSrv := &http.Server{
			Addr:              srvCfg.Addr,
			Handler:           api,
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Info("http server listening", "addr", srvCfg.Addr)
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(shutdown)

		select {
		case <-shutdown:
		case err, ok := <-errCh:
			if ok {
				return fmt.Errorf("http server: %w", err)
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(ctx); err != nil {
			logger.Error("shutdown http", "error", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "listen address")
	_ = viper.BindPFlag("serve.addr", serveCmd.Flags().Lookup("addr"))

	rootCmd.AddCommand(serveCmd)
}
