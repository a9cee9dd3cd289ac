package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all runtime settings, loaded from the environment with
// development-friendly defaults.
type Config struct {
	HTTPAddr   string
	HealthAddr string
	APIToken   string
	Database   DatabaseConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// ConnString renders the lib/pq connection string.
func (d DatabaseConfig) ConnString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

type RedisConfig struct {
	Host string
	Port int
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type KafkaConfig struct {
	Broker      string
	EventsTopic string
	PushTopic   string
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	redisPort, err := strconv.Atoi(getEnv("REDIS_PORT", "6379"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_PORT: %w", err)
	}

	return &Config{
		HTTPAddr:   getEnv("HTTP_ADDR", ":8080"),
		HealthAddr: getEnv("HEALTH_ADDR", ":8081"),
		APIToken:   getEnv("API_TOKEN", "dev-token"),
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "binrental"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host: getEnv("REDIS_HOST", "localhost"),
			Port: redisPort,
		},
		Kafka: KafkaConfig{
			Broker:      getEnv("KAFKA_BROKER", "localhost:9092"),
			EventsTopic: getEnv("KAFKA_EVENTS_TOPIC", "binrental.events"),
			PushTopic:   getEnv("KAFKA_PUSH_TOPIC", "binrental.push"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
