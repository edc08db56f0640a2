package env

import "xbit_backend/internal/config"

const (
	logLevelEnvName  = "LOG_LEVEL"
	logFormatEnvName = "LOG_FORMAT"
)

type logConfig struct {
	level  string
	format string
}

func NewLogConfig() config.LogConfig {
	return &logConfig{
		level:  stringOr(logLevelEnvName, "info"),
		format: stringOr(logFormatEnvName, "text"),
	}
}

func (cfg *logConfig) Level() string {
	return cfg.level
}

func (cfg *logConfig) Format() string {
	return cfg.format
}
