// Package config builds service configuration from the environment so main
// stays lean. Every knob has a development default; production deployments
// override via env vars.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// AccessPolicy selects how the access resolver treats subjects without grants.
type AccessPolicy string

const (
	// PolicyExplicitGrants: no grants means no access. Production posture.
	PolicyExplicitGrants AccessPolicy = "explicit"
	// PolicyAutoProvision: subjects without grants are provisioned a small
	// random set of doors on first query, and pass authorization while they
	// have zero grants. Demo/onboarding posture.
	PolicyAutoProvision AccessPolicy = "auto_provision"
)

// IsValid reports whether the policy is a supported value.
func (p AccessPolicy) IsValid() bool {
	return p == PolicyExplicitGrants || p == PolicyAutoProvision
}

// JWTConfig configures credential verification. The signing key is shared with
// the external identity issuer.
type JWTConfig struct {
	SigningKey string
	Issuer     string
	Audience   string
	AccessTTL  time.Duration
}

// RedisConfig configures the optional token revocation list backend.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the optional audit/notification mirror.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// MQTTConfig configures the optional device health feed.
type MQTTConfig struct {
	BrokerURL   string
	TopicPrefix string
	ClientID    string
}

// Config is the full service configuration.
type Config struct {
	Addr           string
	DatabaseURL    string
	AccessPolicy   AccessPolicy
	ProvisionLimit int
	SeedSampleData bool
	JWT            JWTConfig
	Redis          RedisConfig
	Kafka          KafkaConfig
	MQTT           MQTTConfig
}

// FromEnv builds a Config from environment variables. An unrecognized access
// policy is an error, not a fallback: a typo must never widen access.
func FromEnv() (Config, error) {
	cfg := Config{
		Addr:           getenv("SMARTDOOR_ADDR", ":8080"),
		DatabaseURL:    os.Getenv("SMARTDOOR_DATABASE_URL"),
		AccessPolicy:   AccessPolicy(getenv("SMARTDOOR_ACCESS_POLICY", string(PolicyAutoProvision))),
		ProvisionLimit: getenvInt("SMARTDOOR_PROVISION_LIMIT", 3),
		SeedSampleData: os.Getenv("SMARTDOOR_SEED_SAMPLE_DATA") == "true",
		JWT: JWTConfig{
			// Development default; must be overridden in production.
			SigningKey: getenv("SMARTDOOR_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			Issuer:     getenv("SMARTDOOR_JWT_ISSUER", "smartdoor"),
			Audience:   getenv("SMARTDOOR_JWT_AUDIENCE", "smartdoor-mobile"),
			AccessTTL:  getenvDuration("SMARTDOOR_JWT_ACCESS_TTL", time.Hour),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("SMARTDOOR_REDIS_URL"),
			PoolSize:     getenvInt("SMARTDOOR_REDIS_POOL_SIZE", 10),
			MinIdleConns: getenvInt("SMARTDOOR_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getenvDuration("SMARTDOOR_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getenvDuration("SMARTDOOR_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getenvDuration("SMARTDOOR_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers: splitNonEmpty(os.Getenv("SMARTDOOR_KAFKA_BROKERS")),
			Topic:   getenv("SMARTDOOR_KAFKA_TOPIC", "smartdoor.door-events"),
		},
		MQTT: MQTTConfig{
			BrokerURL:   os.Getenv("SMARTDOOR_MQTT_BROKER_URL"),
			TopicPrefix: getenv("SMARTDOOR_MQTT_TOPIC_PREFIX", "smartdoor/doors"),
			ClientID:    getenv("SMARTDOOR_MQTT_CLIENT_ID", "smartdoor-server"),
		},
	}

	if !cfg.AccessPolicy.IsValid() {
		return Config{}, fmt.Errorf("invalid SMARTDOOR_ACCESS_POLICY %q: must be %q or %q",
			cfg.AccessPolicy, PolicyExplicitGrants, PolicyAutoProvision)
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if part := s[start:i]; part != "" {
				out = append(out, part)
			}
			start = i + 1
		}
	}
	return out
}
