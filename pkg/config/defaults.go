package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "rentory"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort      = "5000"
	DefaultPublicURL = "http://localhost:3000"

	DefaultJWTSecret  = "change-me-in-production"
	DefaultJWTTTL     = 7 * 24 * time.Hour
	DefaultBcryptCost = 10

	DefaultScanSessionTTL = 1 * time.Hour

	DefaultRateLimitRequests = 300
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultSMTPPort   = 587
	DefaultMailFrom   = "technik@example.org"
	DefaultMailDomain = "example.org"

	DefaultKafkaTopic = "rentory.events"
)
