package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds server configuration and engine tunables. Defaults match the
// documented scoring and navigation constants.
type Config struct {
	Port      string
	DBPath    string
	JWTSecret string

	// Routing oracle endpoint.
	OracleURL    string
	OracleAPIKey string

	Engine EngineConfig
}

// EngineConfig carries every scoring/navigation tunable in one place so
// components take explicit values instead of reading ambient globals.
type EngineConfig struct {
	// Segment scoring
	SegmentLengthMeters float64
	ScoringRadiusMeters float64
	MaxNearbyLocations  int

	// Route classification and ranking
	SafeRouteThreshold              float64
	MixedRouteThreshold             float64
	MaxAlternativeRoutes            int
	MaxDetourMultiplier             float64
	MinConfidenceForRecommendations float64

	// Prediction blending
	MinReviewsForPatterns       int
	ConfidenceDataPointsDivisor float64
	LocationConfidenceMax       float64
	MinConfidenceBaseline       float64
	FallbackConfidence          float64
	NeutralScoreBaseline        float64

	// Time-of-day penalty multipliers
	EveningPenaltyMultiplier float64
	NightPenaltyMultiplier   float64
	EveningStartHour         int
	NightStartHour           int

	// Danger zones
	PatternDisparityHigh    float64
	PatternDisparityMedium  float64
	PatternDetectionDefault float64
	DangerZoneRadiusMiles   float64
	DangerZonePolygonPoints int

	// Navigation
	StepAdvanceMeters          float64
	RouteRecalcThresholdMeters float64
	MaxConcurrentRouteRequests int64
	AlertRadiusMeters          float64
	AlertRatingThreshold       float64

	// Network
	RouteRequestTimeout   time.Duration
	DefaultRequestTimeout time.Duration
	RetryAttempts         int
	RouteCacheTTL         time.Duration
}

// Load reads configuration from the environment, falling back to defaults.
func Load() *Config {
	return &Config{
		Port:         getEnv("PORT", ":8080"),
		DBPath:       getEnv("DB_PATH", "./data/saferoute.db"),
		JWTSecret:    getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		OracleURL:    getEnv("ORACLE_URL", "http://localhost:9090/directions"),
		OracleAPIKey: getEnv("ORACLE_API_KEY", ""),
		Engine:       DefaultEngineConfig(),
	}
}

// DefaultEngineConfig returns the documented engine constants.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		SegmentLengthMeters: getEnvFloat("SEGMENT_LENGTH_METERS", 1000),
		ScoringRadiusMeters: getEnvFloat("SCORING_RADIUS_METERS", 500),
		MaxNearbyLocations:  getEnvInt("MAX_NEARBY_LOCATIONS", 20),

		SafeRouteThreshold:              4.0,
		MixedRouteThreshold:             3.0,
		MaxAlternativeRoutes:            5,
		MaxDetourMultiplier:             1.5,
		MinConfidenceForRecommendations: 0.6,

		MinReviewsForPatterns:       5,
		ConfidenceDataPointsDivisor: 10,
		LocationConfidenceMax:       0.9,
		MinConfidenceBaseline:       0.1,
		FallbackConfidence:          0.3,
		NeutralScoreBaseline:        3.5,

		EveningPenaltyMultiplier: 1.2,
		NightPenaltyMultiplier:   1.5,
		EveningStartHour:         18,
		NightStartHour:           22,

		PatternDisparityHigh:    3.0,
		PatternDisparityMedium:  2.0,
		PatternDetectionDefault: 1.5,
		DangerZoneRadiusMiles:   0.5,
		DangerZonePolygonPoints: 8,

		StepAdvanceMeters:          20,
		RouteRecalcThresholdMeters: 100,
		MaxConcurrentRouteRequests: 3,
		AlertRadiusMeters:          500,
		AlertRatingThreshold:       3.0,

		RouteRequestTimeout:   getEnvDuration("ROUTE_REQUEST_TIMEOUT", 10*time.Second),
		DefaultRequestTimeout: getEnvDuration("DEFAULT_REQUEST_TIMEOUT", 5*time.Second),
		RetryAttempts:         getEnvInt("RETRY_ATTEMPTS", 3),
		RouteCacheTTL:         getEnvDuration("ROUTE_CACHE_TTL", 15*time.Minute),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
