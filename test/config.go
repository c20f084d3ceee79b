package test

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// SCENARIO_TOKEN_DURATION bounds the JWT lifetime handed to scenario users
	TokenDuration time.Duration `envconfig:"SCENARIO_TOKEN_DURATION" default:"1h"`
	// SCENARIO_DEBUG_JSON allows dumping full request/response bodies as JSON
	DebugJSON bool `envconfig:"SCENARIO_DEBUG_JSON" default:"false"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
