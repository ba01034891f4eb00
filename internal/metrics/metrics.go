package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/aliskhannn/millionaire-bot/internal/domain/entities"
)

// GameMetrics counts game lifecycle events. It implements service.GameObserver.
type GameMetrics struct {
	registry *prometheus.Registry

	gamesCreated  prometheus.Counter
	gamesFinished *prometheus.CounterVec
	prizesPaid    prometheus.Counter
	helpsUsed     *prometheus.CounterVec
}

// New creates the counters and registers them with a dedicated registry.
func New() *GameMetrics {
	m := &GameMetrics{
		registry: prometheus.NewRegistry(),
		gamesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "millionaire_games_created_total",
			Help: "Total number of games started",
		}),
		gamesFinished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "millionaire_games_finished_total",
				Help: "Total number of finished games by final status",
			},
			[]string{"status"},
		),
		prizesPaid: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "millionaire_prizes_paid_total",
			Help: "Sum of prizes credited to players",
		}),
		helpsUsed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "millionaire_helps_used_total",
				Help: "Total number of helps applied by type",
			},
			[]string{"help_type"},
		),
	}

	m.registry.MustRegister(m.gamesCreated, m.gamesFinished, m.prizesPaid, m.helpsUsed)
	m.registry.MustRegister(collectors.NewGoCollector())

	return m
}

func (m *GameMetrics) GameCreated() {
	m.gamesCreated.Inc()
}

func (m *GameMetrics) GameFinished(status entities.Status, prize int64) {
	m.gamesFinished.WithLabelValues(string(status)).Inc()
	if prize > 0 {
		m.prizesPaid.Add(float64(prize))
	}
}

func (m *GameMetrics) HelpUsed(t entities.HelpType) {
	m.helpsUsed.WithLabelValues(string(t)).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *GameMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (m *GameMetrics) Serve(ctx context.Context, addr string, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics server started", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
