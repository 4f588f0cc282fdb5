package internal

import (
	"testing"
	"time"

	"github.com/Netflix/go-env"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		HTTPPort:             8080,
		GRPCPort:             9090,
		Host:                 "127.0.0.1",
		BufferSize:           16,
		ConnectionBufferSize: 8,
		LimitMessages:        50,
		AuthSecret:           "0123456789abcdef",
		StoreWriteTimeout:    time.Second,
	}
}

func Test_Config_Defaults_From_Environment(t *testing.T) {
	req := require.New(t)
	environ := env.EnvSet{
		"BADGER_FILEPATH": "/tmp/badger",
		"BLUGE_FILEPATH":  "/tmp/bluge",
		"AUTH_SECRET":     "0123456789abcdef",
		"LIMIT_MESSAGES":  "20",
	}

	var config Config
	err := env.Unmarshal(environ, &config)

	req.NoError(err)
	req.Equal(8080, config.HTTPPort)
	req.Equal(9090, config.GRPCPort)
	req.Equal("INFO", config.LogLevel)
	req.Equal(500, config.MaxContentLength)
	req.Equal(5*time.Second, config.StoreWriteTimeout)
	req.Equal(24*time.Hour, config.AuthTokenDuration)
	req.Equal(20, config.LimitMessages)
	req.NoError(config.Validate())
}

func Test_Config_Default_Page_Size(t *testing.T) {
	req := require.New(t)
	environ := env.EnvSet{
		"BADGER_FILEPATH": "/tmp/badger",
		"BLUGE_FILEPATH":  "/tmp/bluge",
		"AUTH_SECRET":     "0123456789abcdef",
	}

	var config Config
	err := env.Unmarshal(environ, &config)

	req.NoError(err)
	req.Equal(50, config.LimitMessages)
	req.NoError(config.Validate())
}

func Test_Config_Missing_Required(t *testing.T) {
	req := require.New(t)

	var config Config
	err := env.Unmarshal(env.EnvSet{"BADGER_FILEPATH": "/tmp/badger"}, &config)

	req.Error(err)
}

func Test_Config_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"short secret", func(c *Config) { c.AuthSecret = "short" }},
		{"no buffer", func(c *Config) { c.BufferSize = 0 }},
		{"no connection buffer", func(c *Config) { c.ConnectionBufferSize = -1 }},
		{"zero page size", func(c *Config) { c.LimitMessages = 0 }},
		{"same ports", func(c *Config) { c.GRPCPort = c.HTTPPort }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := validConfig()
			tt.mutate(&config)

			require.Error(t, config.Validate())
		})
	}
}

func Test_Config_Addresses(t *testing.T) {
	req := require.New(t)
	config := validConfig()

	req.Equal("127.0.0.1:8080", config.HTTPAddress())
	req.Equal("127.0.0.1:9090", config.GRPCAddress())
}
