package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"lrckit-api/cache"
	"lrckit-api/circuitbreaker"
	"lrckit-api/config"
	"lrckit-api/logcolors"
	"lrckit-api/services/notifier"
	"lrckit-api/services/providers"
	_ "lrckit-api/services/providers/kugou"
	_ "lrckit-api/services/providers/lrclib"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

var conf = config.Get()

var (
	store        cache.Store
	breakers     *circuitbreaker.Group
	inFlightReqs sync.Map
)

func init() {
	log.SetFormatter(&log.JSONFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.InfoLevel)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startAlerts()

	var err error
	store, err = openStore()
	if err != nil {
		log.Fatalf("%s Failed to open cache: %v", logcolors.LogCacheInit, err)
	}
	defer store.Close()

	if statsStore := openStatsStore(); statsStore != nil {
		defer statsStore.Close()
	}

	breakers = newBreakerGroup()
	registerLocalProvider(ctx)

	limiter := newRateLimiter()
	go runMaintenance(ctx, limiter)

	router := mux.NewRouter()
	setupRoutes(router)

	server := &http.Server{
		Addr:              ":" + conf.Configuration.Port,
		Handler:           buildHandler(router, limiter),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Infof("%s Shutting down", logcolors.LogServer)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Errorf("%s Shutdown failed: %v", logcolors.LogServer, err)
		}
	}()

	log.Infof("%s Listening on port %s", logcolors.LogServer, conf.Configuration.Port)
	notifier.PublishServerStarted(conf.Configuration.Port, providers.List())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("%s %v", logcolors.LogServer, err)
	}
}
