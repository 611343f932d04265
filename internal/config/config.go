package config

import (
	"fmt"
	"time"

	"ctchen222/tic-tac-toe-minimax/internal/validator"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Log       Log       `yaml:"log"`
	HTTP      HTTP      `yaml:"http"`
	Redis     Redis     `yaml:"redis"`
	Telemetry Telemetry `yaml:"telemetry"`
	Game      Game      `yaml:"game"`
	Bot       Bot       `yaml:"bot"`
	Auth      Auth      `yaml:"auth"`
}

type Log struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text" validate:"oneof=text json"`
}

type HTTP struct {
	Addr              string        `yaml:"addr" env:"HTTP_ADDR" env-default:":8080" validate:"required"`
	ShutdownTimeout   time.Duration `yaml:"shutdown-timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"5s" validate:"gt=0"`
	HeartbeatInterval time.Duration `yaml:"heartbeat-interval" env:"HTTP_HEARTBEAT_INTERVAL" env-default:"10s" validate:"gt=0"`
	WebDir            string        `yaml:"web-dir" env:"WEB_DIR"`
}

type Redis struct {
	Enabled bool   `yaml:"enabled" env:"REDIS_ENABLED" env-default:"false"`
	Addr    string `yaml:"addr" env:"REDIS_CONNSTRING" env-default:"localhost:6379"`
}

type Telemetry struct {
	Enabled      bool   `yaml:"enabled" env:"OTEL_ENABLED" env-default:"false"`
	Endpoint     string `yaml:"endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT" env-default:"otel-collector:4317"`
	ServiceName  string `yaml:"service-name" env:"OTEL_SERVICE_NAME" env-default:"tic-tac-toe"`
	StdoutTraces bool   `yaml:"stdout-traces" env:"OTEL_STDOUT_TRACES" env-default:"false"`
}

type Game struct {
	HumanMark string `yaml:"human-mark" env:"GAME_HUMAN_MARK" env-default:"O" validate:"playermark"`
	// TTL is how long a game outlives its last move, in either store.
	TTL time.Duration `yaml:"ttl" env:"GAME_TTL" env-default:"24h" validate:"gt=0"`
}

type Bot struct {
	Pruning bool `yaml:"pruning" env:"BOT_PRUNING" env-default:"false"`
}

type Auth struct {
	JWTSecret string        `yaml:"jwt-secret" env:"JWT_SECRET" env-default:"my_super_secret_key" validate:"min=8"`
	TokenTTL  time.Duration `yaml:"token-ttl" env:"JWT_TOKEN_TTL" env-default:"24h" validate:"gt=0"`
}

// Load reads the configuration from the YAML file at path, overridden by the
// environment. An empty path reads the environment only.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	var err error
	if path == "" {
		err = cleanenv.ReadEnv(cfg)
	} else {
		err = cleanenv.ReadConfig(path, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to load config: %w", err)
	}

	if err := validator.GetValidator().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}
