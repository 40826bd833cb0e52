package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/annel0/survival-server/internal/api"
	"github.com/annel0/survival-server/internal/cache"
	"github.com/annel0/survival-server/internal/config"
	"github.com/annel0/survival-server/internal/eventbus"
	"github.com/annel0/survival-server/internal/logging"
	"github.com/annel0/survival-server/internal/network"
	"github.com/annel0/survival-server/internal/observability"
	"github.com/annel0/survival-server/internal/world"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "Path to YAML config (GAME_CONFIG env if empty)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	logging.Configure(logging.Options{
		Level:    logging.ParseLevel(cfg.Logging.Level),
		Encoding: cfg.Logging.Encoding,
	})
	if err := logging.InitDefaultLogger("server"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()

	if err := run(cfg); err != nil {
		logging.Error("❌ Сервер остановлен с ошибкой: %v", err)
		_ = logging.GetLoggerManager().CloseAll()
		logging.CloseDefaultLogger()
		os.Exit(1)
	}
	logging.Info("👋 Сервер успешно остановлен")
	_ = logging.GetLoggerManager().CloseAll()
}

func run(cfg *config.Config) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info("🎮 Запуск survival server: карта=%s, %d тиков/с", cfg.Simulation.Map, cfg.Simulation.TickRate)

	shutdownTelemetry, err := observability.InitTelemetry(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		err = multierr.Append(err, shutdownTelemetry(context.Background()))
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	bus, err := newEventBus(cfg.EventBus)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, bus.Close())
	}()

	exporter := eventbus.NewMetricsExporter(bus, reg)
	exporter.Start(5 * time.Second)
	defer exporter.Stop()

	if sub, err := eventbus.StartLoggingListener(ctx, bus); err != nil {
		logging.Warn("⚠️ LoggingListener не запущен: %v", err)
	} else {
		defer sub.Unsubscribe()
	}

	wm, err := world.NewWorldManager(cfg.Simulation,
		world.WithEventBus(bus),
		world.WithMetrics(world.NewMetrics(reg)),
	)
	if err != nil {
		return fmt.Errorf("create world: %w", err)
	}

	hub := network.NewHub(wm, network.NewHubMetrics(reg))
	wm.AddSink(hub)
	defer func() {
		err = multierr.Append(err, hub.Close())
	}()

	var store cache.SnapshotStore
	if cfg.Cache.Enabled {
		var redisStore *cache.RedisSnapshotStore
		redisStore, err = cache.NewRedisSnapshotStore(cfg.Cache)
		if err != nil {
			return fmt.Errorf("connect snapshot cache: %w", err)
		}
		store = redisStore
		wm.AddSink(store)
		defer func() {
			err = multierr.Append(err, store.Close())
		}()
		logging.Info("🗄️ Кеш снимков: redis %s", cfg.Cache.Addr)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.HandleConnection)
	wsServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.GetWSPort()),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	rest := api.NewRestServer(api.Config{
		Port:     fmt.Sprintf(":%d", cfg.Server.GetRESTPort()),
		World:    wm,
		Store:    store,
		Registry: reg,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return wm.Run(gctx)
	})
	g.Go(func() error {
		logging.Info("🌐 WebSocket: ws://localhost%s/ws", wsServer.Addr)
		if err := wsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("websocket server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		logging.Info("🌐 REST API: http://localhost:%d", cfg.Server.GetRESTPort())
		return rest.Start()
	})
	g.Go(func() error {
		<-gctx.Done()
		logging.Info("📡 Завершение работы...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return multierr.Combine(
			wsServer.Shutdown(shutdownCtx),
			rest.Shutdown(shutdownCtx),
		)
	})

	logging.Info("✅ Все сервисы запущены")
	return g.Wait()
}

// newEventBus выбирает JetStream, если задан URL, иначе in-memory шину
func newEventBus(cfg config.EventBusConfig) (eventbus.EventBus, error) {
	if cfg.URL == "" {
		logging.Info("📨 Шина событий: in-memory (buffer=%d)", cfg.Buffer)
		return eventbus.NewMemoryBus(cfg.Buffer), nil
	}
	bus, err := eventbus.NewJetStreamBus(cfg.URL, cfg.Stream, cfg.RetentionDuration())
	if err != nil {
		return nil, fmt.Errorf("connect event bus: %w", err)
	}
	logging.Info("📨 Шина событий: JetStream %s stream=%s", cfg.URL, cfg.Stream)
	return bus, nil
}
