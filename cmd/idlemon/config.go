package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/function61/gokit/envvar"
	"github.com/joho/godotenv"
)

const (
	defaultInterval   = 60 * time.Second
	defaultStateFile  = "idlemon-state.json"
	defaultListenAddr = ":8080"
	defaultAwsRegion  = "us-east-1"
)

type config struct {
	fromNumber string // sender id for outbound texts
	awsRegion  string
	agentURL   string // empty = standalone mode
	interval   time.Duration
	stateFile  string
	listenAddr string
}

func configFromEnv() (*config, error) {
	_ = godotenv.Load() // .env is optional

	conf := &config{
		awsRegion:  getenvDefault("AWS_REGION", defaultAwsRegion),
		agentURL:   os.Getenv("IDLEMON_AGENT_URL"),
		interval:   defaultInterval,
		stateFile:  getenvDefault("IDLEMON_STATE_FILE", defaultStateFile),
		listenAddr: getenvDefault("IDLEMON_LISTEN_ADDR", defaultListenAddr),
	}

	// agent mode never sends texts itself, so the sender number is only
	// required in standalone mode
	if conf.agentURL == "" {
		fromNumber, err := envvar.Required("IDLEMON_FROM_NUMBER")
		if err != nil {
			return nil, err
		}
		conf.fromNumber = fromNumber
	}

	if raw := os.Getenv("IDLEMON_INTERVAL"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			return nil, fmt.Errorf("IDLEMON_INTERVAL: not a positive integer: %s", raw)
		}

		conf.interval = time.Duration(seconds) * time.Second
	}

	return conf, nil
}

func getenvDefault(key string, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}
