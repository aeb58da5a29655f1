package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel          string    `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	LogFormat         string    `yaml:"log-format" env:"LOG_FORMAT" env-default:"text"`
	HTTPPort          string    `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	SocketPort        string    `yaml:"socket-port" env:"SOCKET_PORT" env-default:"9091"`
	Redis             Redis     `yaml:"redis"`
	SQLiteStoragePath string    `yaml:"sqlite-storage-path" env:"SQLITE_STORAGE_PATH" env-default:"history.db"`
	CatalogPath       string    `yaml:"catalog-path" env:"CATALOG_PATH"`
	TicTacToe         TicTacToe `yaml:"tictactoe"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

type TicTacToe struct {
	DefaultDifficulty string        `yaml:"default-difficulty" env-default:"invincible"`
	BlinkInterval     time.Duration `yaml:"blink-interval" env-default:"500ms"`
	BlinkCount        int           `yaml:"blink-count" env-default:"9"`
	DrawRestartDelay  time.Duration `yaml:"draw-restart-delay" env-default:"1s"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

// Load reads the config file when it exists and applies environment overrides and defaults.
func Load(path string) (*Config, error) {
	config := &Config{}

	if path == "" {
		if err := cleanenv.ReadEnv(config); err != nil {
			return nil, fmt.Errorf("unable to read environment: %w", err)
		}

		return config, nil
	}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	return config, nil
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
