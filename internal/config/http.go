package config

import "time"

type HTTP struct {
	ListenAddress   string        `env:"HTTP_LISTEN_ADDRESS" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"15s"`
	AdminToken      string        `env:"HTTP_ADMIN_TOKEN" json:"-"`
	CORSOrigins     []string      `env:"HTTP_CORS_ORIGINS" envSeparator:"," envDefault:"*"`
	LogFieldMaxLen  int           `env:"LOG_FIELD_MAX_LEN" envDefault:"4096"`
}

type Probe struct {
	ListenAddress string        `env:"PROBE_LISTEN_ADDRESS" envDefault:":8081"`
	CheckTimeout  time.Duration `env:"PROBE_CHECK_TIMEOUT" envDefault:"2s"`
}

type Metrics struct {
	ListenAddress string `env:"METRICS_LISTEN_ADDRESS" envDefault:":9090"`
}
