// Command classifier serves the reference burnout-risk model over the
// model-serving HTTP contract (POST /predict, GET /models, GET /models/{version}).
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ignite/burnout-monitor/internal/pkg/logger"
	"github.com/ignite/burnout-monitor/internal/refmodel"
)

func main() {
	addr := flag.String("addr", envOr("CLASSIFIER_ADDR", ":5000"), "listen address")
	level := flag.String("log-level", envOr("LOG_LEVEL", "info"), "log level")
	flag.Parse()

	logger.SetLevel(logger.ParseLevel(*level))

	srv := &http.Server{
		Addr:              *addr,
		Handler:           refmodel.Handler(refmodel.New(time.Now())),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("[classifier] serving %s on %s", refmodel.Version, *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	log.Println("[classifier] stopped")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
