package publisher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"waterwatch/internal/config"
	"waterwatch/internal/kafka"
	"waterwatch/internal/logger"
	"waterwatch/internal/middleware"
	"waterwatch/internal/models"
)

// Publisher is the transport used to emit measurement events
type Publisher interface {
	Publish(ctx context.Context, m *models.Measurement) error
	Stats() kafka.ProducerStats
	HealthCheck(ctx context.Context) error
	Close() error
}

// Service is the station simulator: on each tick it generates one
// measurement event and publishes it to the shared topic.
type Service struct {
	cfg        *config.Config
	interval   time.Duration
	sim        *Simulator
	producer   Publisher
	httpServer *http.Server
	wg         sync.WaitGroup
}

// New constructs the publisher service
func New(cfg *config.Config, interval time.Duration) *Service {
	return &Service{
		cfg:      cfg,
		interval: interval,
		sim:      NewSimulator(DefaultStations, time.Now().UnixNano()),
	}
}

// Run starts the publish loop and blocks until the context is cancelled
// or the publish retry budget is exhausted.
func (s *Service) Run(ctx context.Context) error {
	log := logger.WithComponent("publisher")

	if s.interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", s.interval)
	}

	if s.producer == nil {
		producer, err := kafka.NewProducer(s.cfg.Brokers, s.cfg.Topic, s.cfg.Producer)
		if err != nil {
			return fmt.Errorf("failed to initialize producer: %w", err)
		}
		s.producer = producer
	}
	defer s.producer.Close()

	// Background goroutines hang off an internal context so they stop when
	// the publish loop ends, not only when the parent context does.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.startOpsServer()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.reportStats(runCtx)
	}()

	log.Info().
		Strs("brokers", s.cfg.Brokers).
		Str("topic", s.cfg.Topic).
		Dur("interval", s.interval).
		Msg("publisher started")

	err := s.publishLoop(ctx)

	cancel()
	s.shutdown()
	return err
}

// publishLoop emits one event per tick. A failed publish has already been
// retried with backoff by the producer; surfacing the error here ends the
// process with a non-zero exit.
func (s *Service) publishLoop(ctx context.Context) error {
	log := logger.WithComponent("publisher")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// First event goes out immediately rather than one interval in
	if err := s.publishOne(ctx, log); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.publishOne(ctx, log); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			}
		}
	}
}

func (s *Service) publishOne(ctx context.Context, log zerolog.Logger) error {
	m := s.sim.Next()

	if err := s.producer.Publish(ctx, m); err != nil {
		return fmt.Errorf("publish measurement: %w", err)
	}

	log.Info().
		Str("station_id", m.StationID).
		Str("parameter", string(m.Parameter)).
		Float64("value", m.Value).
		Str("unit", m.Unit).
		Msg("measurement published")
	return nil
}

// startOpsServer exposes /health, /stats, and /metrics
func (s *Service) startOpsServer() {
	log := logger.WithComponent("publisher")

	mux := http.NewServeMux()
	mux.Handle("/health", middleware.Chain(
		http.HandlerFunc(s.healthHandler),
		middleware.Recovery,
		middleware.Logging,
	))
	mux.HandleFunc("/stats", s.statsHandler)
	mux.Handle("/metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:         s.cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		log.Info().Str("addr", s.cfg.HTTPAddr).Msg("starting ops HTTP server")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("ops HTTP server error")
		}
	}()
}

// shutdown stops the ops server and waits for background goroutines
func (s *Service) shutdown() {
	log := logger.WithComponent("publisher")
	log.Info().Msg("initiating graceful shutdown")

	if s.httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("ops HTTP server shutdown error")
		}
	}

	s.wg.Wait()
	log.Info().Msg("publisher stopped")
}

// reportStats periodically logs producer statistics
func (s *Service) reportStats(ctx context.Context) {
	log := logger.WithComponent("publisher")
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := s.producer.Stats()
			log.Info().
				Uint64("sent", stats.MessagesSent).
				Uint64("failed", stats.MessagesFailed).
				Uint64("bytes", stats.BytesWritten).
				Msg("stats")
		}
	}
}

func (s *Service) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.producer.HealthCheck(ctx); err != nil {
		http.Error(w, fmt.Sprintf("unhealthy: %v", err), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status":"healthy","timestamp":"%s"}`, time.Now().Format(time.RFC3339))
}

func (s *Service) statsHandler(w http.ResponseWriter, r *http.Request) {
	stats := s.producer.Stats()

	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"sent":%d,"failed":%d,"bytes":%d}`,
		stats.MessagesSent, stats.MessagesFailed, stats.BytesWritten)
}
