package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации сервера.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Simulation SimulationConfig `yaml:"simulation"`
	EventBus   EventBusConfig   `yaml:"eventbus"`
	Cache      CacheConfig      `yaml:"cache"`
	Logging    LoggingConfig    `yaml:"logging"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
}

type ServerConfig struct {
	WSPort   int `yaml:"ws_port"`
	RESTPort int `yaml:"rest_port"`
}

// SimulationConfig параметры цикла симуляции
type SimulationConfig struct {
	TickRate      int           `yaml:"tick_rate"` // тиков в секунду
	Map           string        `yaml:"map"`
	MapFiles      []string      `yaml:"map_files"` // дополнительные карты в YAML
	StarterKit    bool          `yaml:"starter_kit"`
	CommandBuffer int           `yaml:"command_buffer"`
	Spawner       SpawnerConfig `yaml:"spawner"`
}

// SpawnerConfig параметры появления зомби
type SpawnerConfig struct {
	Enabled         bool    `yaml:"enabled"`
	IntervalSeconds float64 `yaml:"interval_seconds"`
	Batch           int     `yaml:"batch"`
	MaxZombies      int     `yaml:"max_zombies"`
	Threshold       float64 `yaml:"threshold"`
	NoiseScale      float64 `yaml:"noise_scale"`
	Seed            int64   `yaml:"seed"`
}

type EventBusConfig struct {
	URL       string `yaml:"url"` // пустой URL: in-memory шина
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
	Buffer    int    `yaml:"buffer"`
}

type CacheConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Addr       string `yaml:"addr"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	KeyPrefix  string `yaml:"key_prefix"`
	TTLSeconds int    `yaml:"ttl_seconds"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Encoding string `yaml:"encoding"`
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
	Endpoint    string `yaml:"endpoint"`
}

// Default возвращает полностью заполненную конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		Simulation: SimulationConfig{
			TickRate:      20,
			Map:           "testing",
			CommandBuffer: 1024,
			Spawner: SpawnerConfig{
				Enabled:         true,
				IntervalSeconds: 10,
				Batch:           2,
				MaxZombies:      10,
				Threshold:       0.5,
				NoiseScale:      0.3,
				Seed:            1,
			},
		},
		EventBus: EventBusConfig{
			Stream:    "SURVIVAL",
			Retention: 24,
			Buffer:    4096,
		},
		Cache: CacheConfig{
			Addr:       "127.0.0.1:6379",
			KeyPrefix:  "survival",
			TTLSeconds: 60,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "console",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "survival-server",
			Endpoint:    "localhost:4318",
		},
	}
}

// GetWSPort возвращает порт websocket с поддержкой fallback значений
func (s *ServerConfig) GetWSPort() int {
	return getPortWithEnvFallback(s.WSPort, "GAME_WS_PORT", 7777)
}

// GetRESTPort возвращает REST API порт с поддержкой fallback значений
func (s *ServerConfig) GetRESTPort() int {
	return getPortWithEnvFallback(s.RESTPort, "GAME_REST_PORT", 8088)
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	// Если порт задан в конфиге и больше 0, используем его
	if configPort > 0 {
		return configPort
	}

	// Пробуем прочитать из environment variable
	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	// Используем дефолтное значение
	return defaultPort
}

// TickInterval возвращает длительность одного тика
func (s SimulationConfig) TickInterval() time.Duration {
	if s.TickRate <= 0 {
		return time.Second / 20
	}
	return time.Second / time.Duration(s.TickRate)
}

// RetentionDuration возвращает срок хранения событий в стриме
func (e EventBusConfig) RetentionDuration() time.Duration {
	return time.Duration(e.Retention) * time.Hour
}

// TTL возвращает время жизни снимка в кэше
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// Validate проверяет значения, без которых сервер не сможет работать
func (c *Config) Validate() error {
	var errs error
	if c.Simulation.TickRate <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("simulation.tick_rate must be positive, got %d", c.Simulation.TickRate))
	}
	if c.Simulation.Map == "" {
		errs = multierr.Append(errs, fmt.Errorf("simulation.map must be set"))
	}
	if c.Simulation.CommandBuffer <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("simulation.command_buffer must be positive, got %d", c.Simulation.CommandBuffer))
	}
	if sp := c.Simulation.Spawner; sp.Enabled && (sp.IntervalSeconds <= 0 || sp.Batch <= 0) {
		errs = multierr.Append(errs, fmt.Errorf("simulation.spawner needs positive interval_seconds and batch"))
	}
	if c.Cache.Enabled && c.Cache.Addr == "" {
		errs = multierr.Append(errs, fmt.Errorf("cache.addr must be set when cache is enabled"))
	}
	return errs
}

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Если path == "", пытается прочитать из ENV GAME_CONFIG, иначе возвращает Default().
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv("GAME_CONFIG")
		if path == "" {
			return cfg, nil // конфиг не задан, используем дефолты
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}
