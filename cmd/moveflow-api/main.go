// README: Entry point; loads config, wires services, starts the HTTP server.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"moveflow/internal/config"
	"moveflow/internal/events"
	httptransport "moveflow/internal/http"
	"moveflow/internal/infra"
	"moveflow/internal/logger"
	"moveflow/internal/maps"
	"moveflow/internal/modules/distance"
	"moveflow/internal/modules/match"
	"moveflow/internal/modules/matching"
	"moveflow/internal/modules/move"
	"moveflow/internal/modules/reference"
	"moveflow/internal/modules/request"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	appLog := logger.New("moveflow-api")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatal(err)
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)

	// Without an API key the resolver runs entirely on the offline fallback.
	var provider distance.Provider
	if cfg.Maps.APIKey != "" {
		routeService, err := maps.NewRouteService(cfg.Maps.APIKey)
		if err != nil {
			log.Fatalf("maps init: %v", err)
		}
		provider = routeService
	} else {
		appLog.Info(ctx, "maps_disabled", "no maps API key; distance resolver uses offline fallback", nil)
	}

	cache := distance.NewRedisCache(redisClient, time.Duration(cfg.Distance.CacheTTLMinutes)*time.Minute)
	resolver := distance.NewResolver(provider, cache, appLog)

	requestStore := request.NewStore(dbPool)
	moveStore := move.NewStore(dbPool)
	matchStore := match.NewStore(dbPool)

	generator := matching.NewGenerator(resolver, appLog, cfg.Matching)

	var publisher match.EventPublisher
	if cfg.AMQP.URL != "" {
		p, err := events.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			log.Fatalf("rabbitmq init: %v", err)
		}
		defer p.Close()
		publisher = p
	} else {
		appLog.Info(ctx, "events_disabled", "no AMQP URL; lifecycle events are not published", nil)
	}

	lifecycle := match.NewService(matchStore, requestStore, moveStore, publisher, appLog, cfg.Lifecycle.AcceptRetries)
	refResolver := reference.NewResolver(requestStore, moveStore, matchStore)

	handler := httptransport.NewRouter(httptransport.RouterDeps{
		Requests:  requestStore,
		Moves:     moveStore,
		Generator: generator,
		Lifecycle: lifecycle,
		Reference: refResolver,
		Log:       appLog,
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	appLog.Info(ctx, "server_started", "listening on "+cfg.HTTP.Addr, nil)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
