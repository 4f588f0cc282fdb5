package internal

import (
	"fmt"
	"time"
)

type Config struct {
	HTTPPort             int           `env:"HTTP_PORT,default=8080"`
	GRPCPort             int           `env:"GRPC_PORT,default=9090"`
	Host                 string        `env:"HOST,default=0.0.0.0"`
	LogLevel             string        `env:"LOG_LEVEL,default=INFO"`
	BadgerFilepath       string        `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath        string        `env:"BLUGE_FILEPATH,required=true"`
	BufferSize           int           `env:"BUFFER_SIZE,default=256"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=64"`
	LimitMessages        int           `env:"LIMIT_MESSAGES,default=50"`
	MaxContentLength     int           `env:"MAX_CONTENT_LENGTH,default=500"`
	RestartInterval      time.Duration `env:"RESTART_INTERVAL,default=1s"`
	MetricInterval       time.Duration `env:"METRIC_INTERVAL,default=10s"`
	LatencyThreshold     time.Duration `env:"LATENCY_THRESHOLD,default=100ms"`
	LowCapacityThreshold int           `env:"LOW_CAPACITY_THRESHOLD,default=10"`
	AuthTokenDuration    time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`
	AuthSecret           string        `env:"AUTH_SECRET,required=true"`
	StoreWriteTimeout    time.Duration `env:"STORE_WRITE_TIMEOUT,default=5s"`
	HealthInterval       time.Duration `env:"HEALTH_INTERVAL,default=1s"`
	DebugPort            int           `env:"DEBUG_PORT"`
}

// Validate rejects values the relay cannot start with.
func (c Config) Validate() error {
	if len(c.AuthSecret) < 16 {
		return fmt.Errorf("AUTH_SECRET must be at least 16 characters, got %d", len(c.AuthSecret))
	}
	if c.BufferSize <= 0 || c.ConnectionBufferSize <= 0 {
		return fmt.Errorf("BUFFER_SIZE and CONNECTION_BUFFER_SIZE must be positive")
	}
	if c.LimitMessages <= 0 {
		return fmt.Errorf("LIMIT_MESSAGES must be positive, got %d", c.LimitMessages)
	}
	if c.HTTPPort == c.GRPCPort {
		return fmt.Errorf("HTTP_PORT and GRPC_PORT must differ, both are %d", c.HTTPPort)
	}
	return nil
}

func (c Config) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

func (c Config) GRPCAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.GRPCPort)
}
