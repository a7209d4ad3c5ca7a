package main

import (
	"fmt"
	"time"
)

type Config struct {
	Host                 string        `env:"HOST"`
	Port                 int           `env:"PORT,required=true"`
	Mode                 string        `env:"GIN_MODE"`
	LogLevel             string        `env:"LOG_LEVEL,required=true"`
	BadgerFilepath       string        `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath        string        `env:"BLUGE_FILEPATH,required=true"`
	CharReplacement      string        `env:"CHARACTER_REPLACEMENT,required=true"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,required=true"`
	SinkTimeout          time.Duration `env:"SINK_TIMEOUT,required=true"`
	AuthTokenDuration    time.Duration `env:"AUTH_TOKEN_DURATION,required=true"`
	TelemetryInterval    time.Duration `env:"TELEMETRY_INTERVAL,required=true"`
	ShutdownTimeout      time.Duration `env:"SHUTDOWN_TIMEOUT,required=true"`
}

func (c Config) CharacterRune() (rune, error) {
	r := []rune(c.CharReplacement)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			c.CharReplacement,
		)
	}
	return r[0], nil
}
