package consumer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	kafkago "github.com/segmentio/kafka-go"

	"waterwatch/internal/config"
	"waterwatch/internal/kafka"
	"waterwatch/internal/logger"
	"waterwatch/internal/metrics"
	"waterwatch/internal/middleware"
	"waterwatch/internal/models"
	"waterwatch/internal/notify"
	"waterwatch/internal/rules"
)

// Service is the admin notification consumer: it subscribes to the shared
// topic, evaluates each measurement against the threshold rules, and hands
// violations to the notification sink.
type Service struct {
	cfg        *config.Config
	rules      *rules.Set
	notifier   notify.Notifier
	consumer   *kafka.Consumer
	httpServer *http.Server

	mu sync.Mutex
	wg sync.WaitGroup
}

// New constructs the consumer service
func New(cfg *config.Config, set *rules.Set, notifier notify.Notifier) *Service {
	return &Service{
		cfg:      cfg,
		rules:    set,
		notifier: notifier,
	}
}

// Run subscribes and blocks until the context is cancelled or the
// reconnect budget is exhausted.
func (s *Service) Run(ctx context.Context) error {
	log := logger.WithComponent("consumer")

	// Background goroutines hang off an internal context so they stop when
	// the consume loop ends, not only when the parent context does.
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
		Str("group_id", s.cfg.GroupID).
		Int("rules", s.rules.Len()).
		Msg("consumer started")

	err := s.consumeLoop(ctx)

	cancel()
	s.shutdown()
	return err
}

// consumeLoop runs the consumer, reconnecting with capped exponential
// backoff after fatal reader errors until the retry budget is spent.
func (s *Service) consumeLoop(ctx context.Context) error {
	log := logger.WithComponent("consumer")

	backoff := s.cfg.Consumer.ReconnectBackoff
	var lastErr error

	for attempt := 0; attempt <= s.cfg.Consumer.MaxReconnects; attempt++ {
		if attempt > 0 {
			log.Warn().
				Err(lastErr).
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Msg("reconnecting to broker")

			select {
			case <-time.After(backoff):
				backoff *= 2
				if backoff > s.cfg.Consumer.MaxBackoff {
					backoff = s.cfg.Consumer.MaxBackoff
				}
			case <-ctx.Done():
				return nil
			}
		}

		consumer, err := kafka.NewConsumer(s.cfg.Brokers, s.cfg.Topic, s.cfg.GroupID, s.cfg.Consumer, s.handle)
		if err != nil {
			return fmt.Errorf("failed to initialize consumer: %w", err)
		}
		s.setConsumer(consumer)

		// Close the reader when the context ends so FetchMessage unblocks
		done := make(chan struct{})
		go func() {
			select {
			case <-ctx.Done():
				consumer.Close()
			case <-done:
			}
		}()

		err = consumer.Run(ctx)
		close(done)
		consumer.Close()

		if err == nil || ctx.Err() != nil {
			return nil
		}

		lastErr = err
	}

	return fmt.Errorf("consumer failed after %d reconnects: %w", s.cfg.Consumer.MaxReconnects, lastErr)
}

// handle processes one delivered message: decode, evaluate, notify. Only
// a decode failure is reported as an error; a sink failure is logged and
// swallowed so the message is still acknowledged.
func (s *Service) handle(ctx context.Context, msg kafkago.Message) error {
	return s.process(ctx, msg.Value)
}

// process is the broker-independent message path
func (s *Service) process(ctx context.Context, body []byte) error {
	log := logger.WithComponent("consumer")

	m, err := models.Decode(body)
	if err != nil {
		metrics.ConsumeTotal.WithLabelValues("decode_error").Inc()
		return fmt.Errorf("reject message: %w", err)
	}
	metrics.ConsumeTotal.WithLabelValues("handled").Inc()

	log.Debug().
		Str("station_id", m.StationID).
		Str("parameter", string(m.Parameter)).
		Float64("value", m.Value).
		Msg("measurement received")

	n := s.rules.Evaluate(m)
	if n == nil {
		result := "ok"
		if _, found := s.rules.Lookup(m.Parameter); !found {
			result = "no_rule"
		}
		metrics.EvaluationsTotal.WithLabelValues(string(m.Parameter), result).Inc()
		return nil
	}
	metrics.EvaluationsTotal.WithLabelValues(string(m.Parameter), "violation").Inc()
	metrics.NotificationsTotal.WithLabelValues(string(n.Severity)).Inc()

	if err := s.notifier.Notify(ctx, n); err != nil {
		// Evaluation succeeded; a sink failure must not block the pipeline
		metrics.NotifierFailures.Inc()
		log.Error().
			Err(err).
			Str("station_id", m.StationID).
			Str("severity", string(n.Severity)).
			Msg("notification delivery failed")
	}

	return nil
}

func (s *Service) setConsumer(c *kafka.Consumer) {
	s.mu.Lock()
	s.consumer = c
	s.mu.Unlock()
}

func (s *Service) currentConsumer() *kafka.Consumer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.consumer
}

// startOpsServer exposes /health, /stats, and /metrics
func (s *Service) startOpsServer() {
	log := logger.WithComponent("consumer")

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
	log := logger.WithComponent("consumer")
	log.Info().Msg("initiating graceful shutdown")

	if s.httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("ops HTTP server shutdown error")
		}
	}

	s.wg.Wait()
	log.Info().Msg("consumer stopped")
}

// reportStats periodically logs consumer statistics
func (s *Service) reportStats(ctx context.Context) {
	log := logger.WithComponent("consumer")
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c := s.currentConsumer()
			if c == nil {
				continue
			}
			stats := c.Stats()
			log.Info().
				Uint64("handled", stats.MessagesHandled).
				Uint64("handler_errors", stats.HandlerErrors).
				Msg("stats")
		}
	}
}

func (s *Service) healthHandler(w http.ResponseWriter, r *http.Request) {
	if s.currentConsumer() == nil {
		http.Error(w, "unhealthy: consumer not running", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status":"healthy","timestamp":"%s"}`, time.Now().Format(time.RFC3339))
}

func (s *Service) statsHandler(w http.ResponseWriter, r *http.Request) {
	c := s.currentConsumer()
	if c == nil {
		http.Error(w, "consumer not running", http.StatusServiceUnavailable)
		return
	}
	stats := c.Stats()

	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"handled":%d,"handler_errors":%d}`,
		stats.MessagesHandled, stats.HandlerErrors)
}
