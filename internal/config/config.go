// Package config provides configuration management for the application.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/kyiku/arith-quiz-back/internal/quiz"
)

// Config holds the application configuration.
type Config struct {
	Port              string
	AllowedOrigins    []string
	AWSRegion         string
	S3Bucket          string
	ReportPrefix      string
	BedrockEnabled    bool
	TimeLimit         time.Duration
	ResultDisplayMode quiz.ResultDisplayMode
	AutoAdvance       time.Duration // 0 waits for an explicit advance
	SessionExpiry     time.Duration // 0 keeps sessions forever
	AnswerRateLimit   int           // answers per second per client
}

// LoadConfig loads configuration from environment variables.
// A .env file in the working directory is read first when present.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGIN", "http://localhost:5173")),
		AWSRegion:      getEnv("AWS_REGION", "ap-northeast-1"),
		S3Bucket:       getEnv("S3_BUCKET", ""),
		ReportPrefix:   getEnv("REPORT_PREFIX", "reports"),
	}

	var err error
	if cfg.BedrockEnabled, err = strconv.ParseBool(getEnv("BEDROCK_ENABLED", "false")); err != nil {
		return nil, fmt.Errorf("invalid BEDROCK_ENABLED: %w", err)
	}
	if cfg.TimeLimit, err = time.ParseDuration(getEnv("TIME_LIMIT", quiz.DefaultTimeLimit.String())); err != nil {
		return nil, fmt.Errorf("invalid TIME_LIMIT: %w", err)
	}
	if cfg.ResultDisplayMode, err = quiz.ParseResultDisplayMode(getEnv("RESULT_DISPLAY_MODE", string(quiz.DisplayInline))); err != nil {
		return nil, fmt.Errorf("invalid RESULT_DISPLAY_MODE: %w", err)
	}
	if cfg.AutoAdvance, err = time.ParseDuration(getEnv("AUTO_ADVANCE", "0s")); err != nil {
		return nil, fmt.Errorf("invalid AUTO_ADVANCE: %w", err)
	}
	if cfg.SessionExpiry, err = time.ParseDuration(getEnv("SESSION_EXPIRY", "30m")); err != nil {
		return nil, fmt.Errorf("invalid SESSION_EXPIRY: %w", err)
	}
	if cfg.AnswerRateLimit, err = strconv.Atoi(getEnv("ANSWER_RATE_LIMIT", "5")); err != nil {
		return nil, fmt.Errorf("invalid ANSWER_RATE_LIMIT: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if _, err := strconv.Atoi(c.Port); err != nil {
		return errors.New("invalid port: must be a number")
	}
	if c.TimeLimit <= 0 {
		return errors.New("invalid time limit: must be positive")
	}
	if c.AutoAdvance < 0 {
		return errors.New("invalid auto advance: must not be negative")
	}
	if c.SessionExpiry < 0 {
		return errors.New("invalid session expiry: must not be negative")
	}
	if c.AnswerRateLimit <= 0 {
		return errors.New("invalid answer rate limit: must be positive")
	}
	if c.BedrockEnabled && c.AWSRegion == "" {
		return errors.New("bedrock requires AWS_REGION")
	}

	return nil
}

// QuizConfig returns the engine configuration.
func (c *Config) QuizConfig() quiz.Config {
	return quiz.Config{
		TimeLimit:         c.TimeLimit,
		ResultDisplayMode: c.ResultDisplayMode,
	}
}

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
