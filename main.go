package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
)

var (
	configPath = flag.String("config", "", "YAML config file (defaults are used when empty)")
	httpPort   = flag.Int("port", 0, "HTTP port (overrides config)")
	feedURL    = flag.String("feed_url", "", "CSV vehicle positions URL (overrides config)")
	interval   = flag.Duration("interval", 0, "Polling interval (overrides config)")
	maxHistory = flag.Int("max_history", 0, "Positions kept per vehicle (overrides config)")
)

func main() {
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := configureLogging(cfg.Log); err != nil {
		log.Fatalf("logging setup error: %v", err)
	}

	store := NewStore(cfg.Store.MaxHistory)
	visibility := NewVisibility(cfg.Visibility.Initial)
	hub := newHub(store, visibility, cfg.Visibility.FollowClients)
	feed := NewCsvVehicleFeedSource(cfg.Feed.URL, cfg.Feed.Timeout)
	poll := newPoller(feed, NewRecordValidator(cfg.Validation), store, visibility, hub, cfg.Feed.Interval)

	mux := http.NewServeMux()
	registerRoutes(mux, &api{
		store:      store,
		visibility: visibility,
		stats:      poll.stats,
		hub:        hub,
		interval:   cfg.Feed.Interval,
		now:        time.Now,
	}, cfg.Server.StaticDir)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Infof("server starting on http://localhost:%d/", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	log.WithFields(log.Fields{
		"feed":        cfg.Feed.URL,
		"interval":    cfg.Feed.Interval,
		"max_history": cfg.Store.MaxHistory,
		"bounds":      cfg.Validation.CheckBounds,
	}).Info("poller starting")
	pctx, pcancel := context.WithCancel(context.Background())
	go poll.run(pctx)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	log.Info("shutdown initiated...")

	pcancel()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("HTTP server shutdown error: %v", err)
	} else {
		log.Info("HTTP server shut down successfully")
	}
}

// loadConfig reads the config file and applies any flags given on the command line.
func loadConfig() (AppConfig, error) {
	cfg, err := LoadConfig(*configPath)
	if err != nil {
		return cfg, err
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Server.Port = *httpPort
		case "feed_url":
			cfg.Feed.URL = *feedURL
		case "interval":
			cfg.Feed.Interval = *interval
		case "max_history":
			cfg.Store.MaxHistory = *maxHistory
		}
	})
	return cfg, cfg.Validate()
}
