package logging

import (
	"io"
	"os"
	"strings"

	"studio-site-backend/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config describes the logger of one studio process.
type Config struct {
	// Component names the process ("api", "migrate") and is attached to every entry.
	Component string
	// Service is the application name, attached as "service" when set.
	Service string
	// Level is the minimum severity; empty means info.
	Level string
	// Development switches to a colored console encoder with stack traces on errors.
	Development bool
	// Output defaults to stdout.
	Output io.Writer
}

// FromConfig builds the logger settings for component out of the loaded
// application config.
func FromConfig(component string, cfg *config.Config) Config {
	return Config{
		Component:   component,
		Service:     cfg.AppName,
		Level:       cfg.LogLevel,
		Development: !cfg.IsProduction(),
	}
}

// NewLogger builds the process logger. Production entries are JSON with
// severity names log collectors understand.
func NewLogger(cfg Config) (*zap.Logger, error) {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(strings.ToLower(cfg.Level))); err != nil {
			return nil, err
		}
	}

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	opts := []zap.Option{zap.AddCaller()}
	var encoder zapcore.Encoder
	if cfg.Development {
		ec := zap.NewDevelopmentEncoderConfig()
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		ec.EncodeDuration = zapcore.StringDurationEncoder
		encoder = zapcore.NewConsoleEncoder(ec)
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	} else {
		encoder = zapcore.NewJSONEncoder(productionEncoderConfig())
	}

	logger := zap.New(zapcore.NewCore(encoder, zapcore.AddSync(out), level), opts...)

	fields := make([]zap.Field, 0, 2)
	if cfg.Service != "" {
		fields = append(fields, zap.String("service", cfg.Service))
	}
	if cfg.Component != "" {
		fields = append(fields, zap.String("component", cfg.Component))
	}
	return logger.With(fields...), nil
}

func productionEncoderConfig() zapcore.EncoderConfig {
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "timestamp"
	ec.LevelKey = "severity"
	ec.MessageKey = "message"
	ec.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	ec.EncodeDuration = zapcore.MillisDurationEncoder
	ec.EncodeLevel = func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(severity(l))
	}
	return ec
}

func severity(l zapcore.Level) string {
	switch l {
	case zapcore.WarnLevel:
		return "WARNING"
	case zapcore.DPanicLevel, zapcore.PanicLevel:
		return "ALERT"
	case zapcore.FatalLevel:
		return "CRITICAL"
	default:
		return l.CapitalString()
	}
}
