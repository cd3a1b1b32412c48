package commands

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ccollicutt/typemigrate/pkg/config"
)

var consoleEncoderConfig = zapcore.EncoderConfig{
	MessageKey:     "msg",
	LevelKey:       "level",
	NameKey:        "logger",
	EncodeLevel:    zapcore.CapitalLevelEncoder,
	EncodeDuration: zapcore.StringDurationEncoder,
	EncodeName:     zapcore.FullNameEncoder,
}

// newLogger returns a console logger writing to stderr at the given level.
func newLogger(stderr io.Writer, level string, colored bool) (*zap.Logger, error) {
	zapLevel, err := config.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	encoderConfig := consoleEncoderConfig
	if colored {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	return zap.New(
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig),
			zapcore.Lock(zapcore.AddSync(stderr)),
			zap.NewAtomicLevelAt(zapLevel),
		),
	).Named("typemigrate"), nil
}
