package main

import (
	"os"
	"strconv"
	"strings"
	"time"

	"traceval/internal/domain/eval"
)

const (
	defaultKafkaBrokers   = "kafka:9092"
	defaultRequestsTopic  = "evaluation-requests"
	defaultOutcomesTopic  = "evaluation-outcomes"
	defaultKafkaGroupID   = "traceval-worker"
	defaultRuntimeCommand = "tracevm"
	defaultDockerImage    = "traceval/runtime:latest"

	modeKafka = "kafka"
	modeLocal = "local"

	backendHost   = "host"
	backendDocker = "docker"
)

type appConfig struct {
	Mode           string
	KafkaBrokers   []string
	RequestsTopic  string
	OutcomesTopic  string
	GroupID        string
	WorkingDir     string
	RuntimeCommand string
	Backend        string
	DockerImage    string
	MaxRequests    int
	MaxParallel    int
	DefaultLimits  eval.RunLimits
}

func loadAppConfig() appConfig {
	return appConfig{
		Mode:           envOrDefault("TRACEVAL_MODE", modeKafka),
		KafkaBrokers:   parseBrokerList(envOrDefault("KAFKA_BROKERS", defaultKafkaBrokers)),
		RequestsTopic:  envOrDefault("KAFKA_REQUESTS_TOPIC", defaultRequestsTopic),
		OutcomesTopic:  envOrDefault("KAFKA_OUTCOMES_TOPIC", defaultOutcomesTopic),
		GroupID:        envOrDefault("KAFKA_GROUP_ID", defaultKafkaGroupID),
		WorkingDir:     envOrDefault("TRACEVAL_WORKDIR", os.TempDir()),
		RuntimeCommand: envOrDefault("TRACEVAL_RUNTIME", defaultRuntimeCommand),
		Backend:        envOrDefault("TRACEVAL_BACKEND", backendHost),
		DockerImage:    envOrDefault("TRACEVAL_DOCKER_IMAGE", defaultDockerImage),
		MaxRequests:    parseMaxRequests(os.Getenv("REQUESTS_EXPECTED")),
		MaxParallel:    parseMaxParallel(os.Getenv("TRACEVAL_MAX_PARALLEL")),
		DefaultLimits: eval.RunLimits{
			TimeLimit:        parseDuration(os.Getenv("TRACEVAL_TIME_LIMIT"), 0),
			MemoryLimitBytes: parseBytes(os.Getenv("TRACEVAL_MEMORY_LIMIT")),
		},
	}
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseBrokerList(raw string) []string {
	fields := strings.Split(raw, ",")
	brokers := make([]string, 0, len(fields))
	for _, field := range fields {
		if trimmed := strings.TrimSpace(field); trimmed != "" {
			brokers = append(brokers, trimmed)
		}
	}
	return brokers
}

func parseMaxRequests(raw string) int {
	if raw == "" {
		return 0
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	if value < 0 {
		return 0
	}
	return value
}

func parseMaxParallel(raw string) int {
	if raw == "" {
		return 1
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return 1
	}
	return value
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}

func parseBytes(raw string) int64 {
	if raw == "" {
		return 0
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value < 0 {
		return 0
	}
	return value
}
