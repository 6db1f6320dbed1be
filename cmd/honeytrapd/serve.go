/*
MIT License

Copyright (c) 2024 Nicolas JUHEL

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/blackfennetworks/honeytrap/internal/clock"
	hcfg "github.com/blackfennetworks/honeytrap/internal/config"
	"github.com/blackfennetworks/honeytrap/internal/hplog"
	"github.com/blackfennetworks/honeytrap/internal/logstore"
	"github.com/blackfennetworks/honeytrap/internal/metrics"
	"github.com/blackfennetworks/honeytrap/internal/monitor"
	"github.com/blackfennetworks/honeytrap/internal/ratelimit"
	"github.com/blackfennetworks/honeytrap/internal/reactor"
	"github.com/blackfennetworks/honeytrap/internal/upload"
)

func newServeCmd(v *viper.Viper) *cobra.Command {
	var adminAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "run the honeypot reactor",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			return runServe(cmd, cfgPath, v, adminAddr)
		},
	}

	if err := hcfg.BindFlags(cmd, v); err != nil {
		panic(err)
	}
	cmd.Flags().StringVar(&adminAddr, "admin-addr", "127.0.0.1:9090", "address for the admin stats/metrics endpoint")

	return cmd
}

func runServe(cmd *cobra.Command, cfgPath string, v *viper.Viper, adminAddr string) error {
	printBanner(version)

	cfg, err := hcfg.Load(cfgPath, v)
	if err != nil {
		return err
	}

	log := hplog.New(hplog.Options{Level: logrus.InfoLevel})

	flash, err := logstore.OpenSQLiteFlash(cfg.FlashPath)
	if err != nil {
		return fmt.Errorf("serve: open flash mirror: %w", err)
	}
	store := logstore.New(cfg.LogCapacity, flash, log)
	if err := store.Init(); err != nil {
		return fmt.Errorf("serve: replay flash mirror: %w", err)
	}
	defer store.Close()

	limiter := ratelimit.New(cfg.RateLimitWindow(), cfg.RateLimitMaxPerWin)

	rcfg := reactor.Config{
		Ports:             cfg.Ports,
		Table:             cfg.Table(),
		MaxConnections:    cfg.MaxConnections,
		ConnectionTimeout: cfg.ConnectionTimeout(),
		EnableLogging:     cfg.EnableLogging,
	}
	r := reactor.New(rcfg, clock.NewSystem(), limiter, store, log)

	var uploader upload.Uploader = upload.Noop{}
	if cfg.EnableRemoteUpload {
		u, err := upload.NewS3Uploader(context.Background(), cfg.S3Bucket, cfg.S3Region, "honeytrap")
		if err != nil {
			log.Error("remote upload disabled: failed to initialize", hplog.Fields{"error": err.Error()})
		} else {
			uploader = u
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := r.Start(ctx); err != nil {
		return fmt.Errorf("serve: start reactor: %w", err)
	}
	log.Info("reactor started", hplog.Fields{
		"ports":              cfg.Ports,
		"max_connections":    cfg.MaxConnections,
		"connection_timeout": cfg.ConnectionTimeoutString(),
	})

	mon := monitor.New(r, store, log, uploader)
	go mon.Run(ctx)

	admin := newAdminServer(adminAddr, r)
	go func() {
		if err := admin.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("admin server stopped", hplog.Fields{"error": err.Error()})
		}
	}()

	<-ctx.Done()
	log.Info("shutting down", nil)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = admin.Shutdown(shutdownCtx)

	return r.Stop()
}

// newAdminServer builds the small gin-based admin API: a JSON stats
// snapshot and a Prometheus scrape endpoint, both read-only.
func newAdminServer(addr string, r *reactor.Reactor) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	registry := prometheus.NewRegistry()
	registry.MustRegister(metrics.NewCollector(r))

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"running": r.IsRunning()})
	})
	engine.GET("/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, r.Snapshot())
	})
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	return &http.Server{
		Addr:    addr,
		Handler: engine,
	}
}
