package config

import "time"

type Server struct {
	ListenAddress       string        `env:"SERVER_LISTEN_ADDRESS" envDefault:":8080"`
	ProbeListenAddress  string        `env:"PROBE_LISTEN_ADDRESS" envDefault:":8091"`
	MetricListenAddress string        `env:"METRIC_LISTEN_ADDRESS" envDefault:":8092"`
	ShutdownTimeout     time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	ReadHeaderTimeout   time.Duration `env:"SERVER_READ_HEADER_TIMEOUT" envDefault:"5s"`
}
