// Package config loads the service configuration from the environment, with
// .env support for local runs.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// maxEventNameLen keeps "<event name> <4-hex token>" within Stripe's
// 22-character statement descriptor limit.
const maxEventNameLen = 17

type Config struct {
	ListenAddr  string
	PostgresURL string
	RedisAddr   string

	StripeSecretKey string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string
	MailReplyTo  string

	SlackWebhookURL string

	// EventName is the public name of the conference, used in mails and on
	// card statements.
	EventName string
	// DomainURL is the public base URL for claim links in invitation mails.
	DomainURL string

	ChildrenCapacity int
}

func Load() (Config, error) {
	// A missing .env is fine; production sets the environment directly.
	_ = godotenv.Load()

	cfg := Config{
		ListenAddr:       getenv("LISTEN_ADDR", ":8080"),
		PostgresURL:      os.Getenv("POSTGRES_URL"),
		RedisAddr:        getenv("REDIS_ADDR", "localhost:6379"),
		StripeSecretKey:  os.Getenv("STRIPE_SECRET_KEY"),
		SMTPHost:         getenv("SMTP_HOST", "localhost"),
		SMTPUsername:     os.Getenv("SMTP_USERNAME"),
		SMTPPassword:     os.Getenv("SMTP_PASSWORD"),
		MailFrom:         getenv("MAIL_FROM", "tickets@example.com"),
		MailReplyTo:      os.Getenv("MAIL_REPLY_TO"),
		SlackWebhookURL:  os.Getenv("SLACK_WEBHOOK_URL"),
		EventName:        getenv("EVENT_NAME", "Conference"),
		DomainURL:        getenv("DOMAIN_URL", "http://localhost:8080"),
		SMTPPort:         25,
		ChildrenCapacity: 50,
	}

	var err error
	if port := os.Getenv("SMTP_PORT"); port != "" {
		cfg.SMTPPort, err = strconv.Atoi(port)
		if err != nil {
			return Config{}, fmt.Errorf("SMTP_PORT: %w", err)
		}
	}
	if capacity := os.Getenv("CHILDREN_CAPACITY"); capacity != "" {
		cfg.ChildrenCapacity, err = strconv.Atoi(capacity)
		if err != nil {
			return Config{}, fmt.Errorf("CHILDREN_CAPACITY: %w", err)
		}
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.PostgresURL == "" {
		return fmt.Errorf("POSTGRES_URL is required")
	}
	if c.EventName == "" {
		return fmt.Errorf("EVENT_NAME is required")
	}
	if len(c.EventName) > maxEventNameLen {
		return fmt.Errorf("EVENT_NAME %q is longer than %d characters", c.EventName, maxEventNameLen)
	}
	if c.ChildrenCapacity < 0 {
		return fmt.Errorf("CHILDREN_CAPACITY must not be negative")
	}
	return nil
}

func getenv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
