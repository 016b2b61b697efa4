package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/hookrelay/dispatch/config"
	"github.com/hookrelay/dispatch/dispatch"
	"github.com/hookrelay/dispatch/internal/http/chi"
	"github.com/hookrelay/dispatch/metrics"
	"github.com/hookrelay/dispatch/routes"
	"github.com/hookrelay/dispatch/webhook"
	"github.com/hookrelay/dispatch/webhook/httpclient"
	webhookredis "github.com/hookrelay/dispatch/webhook/redis"
)

const (
	TIMEOUT             = 30 * time.Second
	dispatchHTTPTimeout = 15 * time.Second
)

/* cmd/server is the door in and out of the application: it wires the
 * storage layer, the dispatch engine, and the HTTP surface, and is the
 * only place any of those packages are imported together.
 */

func main() {
	cfg, err := config.GetConfig()
	if err != nil {
		fmt.Println(err)
		return
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT,
	)
	defer stop()

	repo, err := webhookredis.NewRepository(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer repo.Close(ctx)

	stateRepo := webhookredis.NewStateRepo(repo.GetClient())

	registry := routes.NewLoader()
	if err := registry.Load(cfg.WebhookRegistryPath); err != nil {
		fmt.Println(err)
		return
	}
	for _, reg := range registry.List() {
		if err := repo.PutWebhook(ctx, reg.ToWebhook()); err != nil {
			fmt.Printf("seeding webhook %d from registry: %v\n", reg.WebhookID, err)
			return
		}
	}

	engineCfg := dispatch.Config{
		Batching: dispatch.BatchingConfig{
			MaxSize: cfg.BatchingMaxSize,
			MaxWait: cfg.BatchingMaxWait,
		},
		Retry: dispatch.RetryConfig{
			Base:           cfg.RetryBase,
			Max:            cfg.RetryMax,
			FailureHorizon: cfg.RetryFailureHorizon,
		},
		Retention: dispatch.RetentionConfig{
			DeliveredTTL: cfg.RetentionDeliveredTTL,
			FailedTTL:    cfg.RetentionFailedTTL,
		},
		DrainDeadline: cfg.ShutdownDrainDeadline,
		ErrorsBuffer:  cfg.ErrorsBufferSize,
	}
	if err := engineCfg.Validate(); err != nil {
		fmt.Println(err)
		return
	}

	client := httpclient.New(dispatchHTTPTimeout)
	engine := dispatch.NewEngine(repo, repo, stateRepo, client, engineCfg)
	go logErrors(ctx, engine)

	if err := engine.Start(ctx); err != nil {
		fmt.Println(err)
		return
	}

	collector := metrics.NewRedisCollector(repo.GetClient(), registry)
	exporter, err := metrics.NewOTelExporter(collector)
	if err != nil {
		fmt.Println(err)
		return
	}

	webhookService := webhook.NewService(repo, repo)
	r := chi.Handlers(webhookService, repo, registry, exporter)
	srv := &http.Server{
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		Addr:         ":" + cfg.Port,
		Handler:      r,
	}

	errShutdown := make(chan error, 1)
	go shutdown(srv, engine, exporter, ctx, errShutdown)

	fmt.Printf("Listening on port %s\n", cfg.Port)
	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		fmt.Println(err)
		return
	}
	if err = <-errShutdown; err != nil {
		fmt.Println(err)
	}
}

func shutdown(server *http.Server, engine *dispatch.Engine, exporter *metrics.OTelExporter, ctxShutdown context.Context, errShutdown chan error) {
	<-ctxShutdown.Done()

	ctxTimeout, stop := context.WithTimeout(context.Background(), TIMEOUT)
	defer stop()

	err := server.Shutdown(ctxTimeout)
	if err != nil {
		errShutdown <- fmt.Errorf("forcing server shutdown: %w", err)
		return
	}
	fmt.Printf("\nShutting down server...\n")

	if err := engine.Shutdown(context.Background()); err != nil {
		errShutdown <- fmt.Errorf("shutting down dispatch engine: %w", err)
		return
	}

	_ = exporter.Shutdown(context.Background())
	errShutdown <- nil
}

// logErrors drains the engine's structural error channel to stdout until
// ctx is cancelled. A real deployment would route this to its logging
// stack instead.
func logErrors(ctx context.Context, engine *dispatch.Engine) {
	errs := engine.Errors()
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errs:
			if !ok {
				return
			}
			fmt.Printf("dispatch error: %v\n", err)
		}
	}
}
