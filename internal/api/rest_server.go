package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/annel0/survival-server/internal/cache"
	"github.com/annel0/survival-server/internal/logging"
	"github.com/annel0/survival-server/internal/middleware"
	"github.com/annel0/survival-server/internal/world"
)

// WorldView часть WorldManager, доступная REST API. Методы безопасны из любой горутины.
type WorldView interface {
	Latest() *world.Snapshot
	SessionCount() int
}

// RestServer представляет REST API сервер
type RestServer struct {
	router  *gin.Engine
	server  *http.Server
	world   WorldView
	store   cache.SnapshotStore
	metrics *ServerMetrics
	logger  *logging.Logger
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Port     string              // адрес для запуска сервера, например ":8088"
	World    WorldView           // источник снимков
	Store    cache.SnapshotStore // необязательный кеш снимков, используется, пока мир не дал снимок
	Registry *prometheus.Registry
}

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// NewRestServer создает новый REST API сервер
func NewRestServer(config Config) *RestServer {
	if config.Port == "" {
		config.Port = ":8088"
	}
	if config.Registry == nil {
		config.Registry = prometheus.NewRegistry()
	}

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	// === Observability middleware ===
	router.Use(otelgin.Middleware("rest_api"))

	loggerMw := middleware.NewRequestLogger()
	router.Use(loggerMw.Handler())

	promMw := middleware.NewPrometheusMiddleware("survival", config.Registry)
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router, config.Registry)

	rs := &RestServer{
		router:  router,
		world:   config.World,
		store:   config.Store,
		metrics: NewServerMetrics(),
		logger:  logging.GetComponentLogger("api"),
	}
	rs.server = &http.Server{
		Addr:              config.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	rs.setupRoutes()
	return rs
}

// Handler возвращает http.Handler сервера
func (rs *RestServer) Handler() http.Handler { return rs.router }

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	// Middleware для CORS
	rs.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, If-None-Match")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	api := rs.router.Group("/api")
	{
		api.GET("/stats", rs.handleStats)
		api.GET("/snapshot", rs.handleSnapshot)
		api.GET("/entities/:id", rs.handleEntity)
	}

	rs.router.GET("/health", rs.handleHealth)
}

// handleHealth проверка живости
func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}

// handleStats возвращает состояние мира и метрики процесса
func (rs *RestServer) handleStats(c *gin.Context) {
	stats := map[string]interface{}{
		"server":   rs.metrics.Collect(),
		"sessions": rs.world.SessionCount(),
	}
	if snap := rs.world.Latest(); snap != nil {
		stats["tick"] = snap.Tick
		stats["map"] = snap.MapID
		stats["entities"] = snap.CountByType()
	}
	if rs.store != nil {
		stats["cache"] = rs.store.GetMetrics()
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Статистика получена",
		Data:    stats,
	})
}

// latest возвращает снимок мира, а если мир ещё не дал снимка, снимок из кеша
func (rs *RestServer) latest(ctx context.Context) (*world.Snapshot, error) {
	if snap := rs.world.Latest(); snap != nil {
		return snap, nil
	}
	if rs.store == nil {
		return nil, cache.ErrCacheMiss
	}
	return rs.store.Latest(ctx)
}

// handleSnapshot отдаёт последний снимок. ETag считается по телу ответа (xxhash).
func (rs *RestServer) handleSnapshot(c *gin.Context) {
	snap, err := rs.latest(c.Request.Context())
	if err != nil {
		rs.unavailable(c, err)
		return
	}

	body, err := json.Marshal(snap)
	if err != nil {
		rs.logger.Error("Снимок тика %d не сериализован: %v", snap.Tick, err)
		c.JSON(http.StatusInternalServerError, GenericResponse{Success: false, Message: "Ошибка сериализации"})
		return
	}

	etag := `"` + strconv.FormatUint(xxhash.Sum64(body), 16) + `"`
	c.Header("ETag", etag)
	c.Header("Cache-Control", "no-cache")
	if c.GetHeader("If-None-Match") == etag {
		c.Status(http.StatusNotModified)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// handleEntity отдаёт одну сущность последнего снимка
func (rs *RestServer) handleEntity(c *gin.Context) {
	id := c.Param("id")

	if snap := rs.world.Latest(); snap != nil {
		if raw, ok := snap.Find(id); ok {
			c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Сущность найдена", Data: raw})
			return
		}
		rs.notFound(c, id)
		return
	}

	if rs.store == nil {
		rs.unavailable(c, cache.ErrCacheMiss)
		return
	}
	raw, err := rs.store.Entity(c.Request.Context(), id)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Сущность найдена", Data: raw})
	case cache.IsCacheMiss(err):
		rs.notFound(c, id)
	default:
		rs.unavailable(c, err)
	}
}

func (rs *RestServer) notFound(c *gin.Context, id string) {
	c.JSON(http.StatusNotFound, GenericResponse{
		Success: false,
		Message: "Сущность " + id + " не найдена",
	})
}

func (rs *RestServer) unavailable(c *gin.Context, err error) {
	if !cache.IsCacheMiss(err) {
		rs.logger.Warn("Снимок недоступен: %v", err)
	}
	c.JSON(http.StatusServiceUnavailable, GenericResponse{
		Success: false,
		Message: "Снимок мира ещё не готов",
	})
}

// Start запускает REST сервер и блокируется до Shutdown
func (rs *RestServer) Start() error {
	rs.logger.Info("REST API слушает %s", rs.server.Addr)
	if err := rs.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown останавливает сервер, дожидаясь активных запросов
func (rs *RestServer) Shutdown(ctx context.Context) error {
	return rs.server.Shutdown(ctx)
}
