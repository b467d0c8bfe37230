package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process logger: JSON at info level in production,
// colored console output at debug level everywhere else.
func New(production bool) (*zap.Logger, error) {
	if production {
		conf := zap.NewProductionConfig()
		conf.DisableStacktrace = true
		return conf.Build()
	}

	conf := zap.NewDevelopmentConfig()
	conf.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	conf.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return conf.Build()
}
