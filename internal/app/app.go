package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"token-price-alerts/internal/alerting"
	"token-price-alerts/internal/config"
	"token-price-alerts/internal/engine"
	"token-price-alerts/internal/fetcher"
	"token-price-alerts/internal/history"
	"token-price-alerts/internal/sampler"
	"token-price-alerts/internal/watchlist"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) buildWatchlist() (*watchlist.Watchlist, error) {
	list, err := watchlist.FromConfig(a.Config.Tokens)
	if err != nil {
		return nil, err
	}
	if list.Len() == 0 {
		a.Logger.Warn().Msg("no tokens configured; nothing will be watched")
	}
	return list, nil
}

func (a *App) newGraph() *fetcher.Graph {
	return fetcher.NewGraph(fetcher.GraphOptions{
		Endpoint:  a.Config.Graph.Endpoint,
		Timeout:   a.Config.Graph.RequestTimeout,
		UserAgent: a.Config.Graph.UserAgent,
	}, a.Logger)
}

// newSinks assembles the enabled notification sinks. The returned closer
// releases sink resources once dispatch has drained.
func (a *App) newSinks() ([]alerting.Sink, func(), error) {
	var sinks []alerting.Sink
	var closers []func()

	if a.Config.Alerting.Telegram.Enabled {
		tg := a.Config.Alerting.Telegram
		sinks = append(sinks, alerting.NewTelegramSink(tg.BotToken, tg.ChatID, tg.APIBase, 10*time.Second, a.Logger))
	}

	if a.Config.Alerting.Kafka.Enabled {
		kc := a.Config.Alerting.Kafka
		sink, err := alerting.NewKafkaSink(kc.Brokers, kc.Topic, kc.WriteTimeout, a.Logger)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, sink)
		closers = append(closers, func() { _ = sink.Close() })
	}

	sinks = append(sinks, alerting.NewAudioSink(a.Config.Alerting.SoundEnabled, os.Stdout))

	closeAll := func() {
		for _, closeSink := range closers {
			closeSink()
		}
	}
	return sinks, closeAll, nil
}

// Run executes the long-running monitoring service.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	list, err := a.buildWatchlist()
	if err != nil {
		return err
	}

	sinks, closeSinks, err := a.newSinks()
	if err != nil {
		return err
	}
	defer closeSinks()

	dispatcher := alerting.NewDispatcher(sinks, a.Config.Alerting.DispatchTimeout, a.Logger)
	recorder := history.NewRecorder(a.Config.Export.HistorySize)
	graph := a.newGraph()

	smp := sampler.New(graph, graph, list.Addresses(), sampler.Options{
		ReferenceInterval: a.Config.Sampler.ReferencePollInterval,
		TokenInterval:     a.Config.Sampler.TokenPollInterval,
		StartupDelay:      a.Config.Sampler.StartupDelay,
	}, a.Logger)

	eng := engine.New(smp, list, dispatcher, recorder, a.Logger)

	stopMetrics := a.serveMetrics()
	defer stopMetrics()

	a.Logger.Info().Int("tokens", list.Len()).Msg("starting monitoring service")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = smp.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		_ = eng.Run(ctx)
	}()
	wg.Wait()

	// Let in-flight notifications drain before sink teardown.
	dispatcher.Close()

	a.Logger.Info().Uint64("cycles", eng.Cycles()).Msg("monitoring service stopped")
	return nil
}

func (a *App) serveMetrics() func() {
	addr := a.Config.Metrics.ListenAddr
	if addr == "" {
		return func() {}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		a.Logger.Info().Str("addr", addr).Msg("serving prometheus metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.Error().Err(err).Msg("metrics listener failed")
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
}

// ExportOptions hold parameters for capturing and rendering price history.
type ExportOptions struct {
	Duration  time.Duration
	Interval  time.Duration
	PNGPath   string
	CSVPath   string
	MaxPoints int
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Timeout time.Duration
}

// SimulateOptions configure the simulate-alert command.
type SimulateOptions struct {
	Token        string
	ReferenceUSD float64
	DerivedRate  float64
}
