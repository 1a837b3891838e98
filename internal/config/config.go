package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAppName         = "GKash"
	defaultAppEnv          = "development"
	defaultPort            = "8080"
	defaultLogLevel        = "info"
	defaultShutdownDelay   = 10 * time.Second
	defaultIdempotencyTTL  = 24 * time.Hour
	defaultScopedTokenTTL  = 30 * time.Minute
	defaultSessionTokenTTL = 7 * 24 * time.Hour
	defaultOTPTTL          = 5 * time.Minute
	defaultOCRTimeout      = 30 * time.Second
	defaultStaleAge        = 72 * time.Hour
	defaultPhoneDigits     = 10
	defaultLoginRateLimit  = 5
	defaultOCRSpaceURL     = "https://api.ocr.space/parse/image"
	defaultFaceConfidence  = 90.0
	defaultLLMURL          = "https://api.groq.com/openai/v1/chat/completions"
	defaultLLMModel        = "llama-3.3-70b-versatile"
	defaultLLMTimeout      = 30 * time.Second
	defaultAdvisorTTL      = 24 * time.Hour
	defaultAdvisorHistory  = 20
	devJWTSecret           = "dev-secret-change-me"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string
	AppEnv         string
	Port           string
	LogLevel       string
	DatabaseURL    string
	RedisURL       string
	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration

	JWTSecret       string
	ScopedTokenTTL  time.Duration
	SessionTokenTTL time.Duration

	RequirePhoneOTP bool
	OTPTTL          time.Duration
	PhoneDigits     int
	LoginRateLimit  int

	OCRSpaceURL    string
	OCRSpaceAPIKey string
	OCRTimeout     time.Duration

	// FaceDetector selects the face detection backend: "rekognition" or
	// "static". static is refused outside development.
	FaceDetector      string
	FaceMinConfidence float64

	ImageBucket        string
	ImagePrefix        string
	AWSRegion          string
	AWSEndpoint        string
	AWSAccessKeyID     string
	AWSSecretAccessKey string

	StaleRegistrationAge time.Duration

	LLMAPIURL           string
	LLMAPIKey           string
	LLMModel            string
	LLMTimeout          time.Duration
	AdvisorSessionTTL   time.Duration
	AdvisorHistoryLimit int
}

// Face detection backends.
const (
	FaceDetectorRekognition = "rekognition"
	FaceDetectorStatic      = "static"
)

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	cfg := Config{
		AppName:            getEnv("APP_NAME", defaultAppName),
		AppEnv:             getEnv("APP_ENV", defaultAppEnv),
		Port:               getEnv("PORT", defaultPort),
		LogLevel:           strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RedisURL:           os.Getenv("REDIS_URL"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		OCRSpaceURL:        getEnv("OCR_SPACE_URL", defaultOCRSpaceURL),
		OCRSpaceAPIKey:     os.Getenv("OCR_SPACE_API_KEY"),
		ImageBucket:        os.Getenv("IMAGE_BUCKET"),
		ImagePrefix:        getEnv("IMAGE_PREFIX", "gkash"),
		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		AWSEndpoint:        os.Getenv("AWS_ENDPOINT"),
		AWSAccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		AWSSecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		FaceDetector:       strings.ToLower(os.Getenv("FACE_DETECTOR")),
		LLMAPIURL:          getEnv("LLM_API_URL", defaultLLMURL),
		LLMAPIKey:          os.Getenv("LLM_API_KEY"),
		LLMModel:           getEnv("LLM_MODEL", defaultLLMModel),
	}

	var err error
	if cfg.ShutdownPeriod, err = durationEnv("SHUTDOWN_TIMEOUT", defaultShutdownDelay); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = durationEnv("IDEMPOTENCY_TTL", defaultIdempotencyTTL); err != nil {
		return Config{}, err
	}
	if cfg.ScopedTokenTTL, err = durationEnv("SCOPED_TOKEN_TTL", defaultScopedTokenTTL); err != nil {
		return Config{}, err
	}
	if cfg.SessionTokenTTL, err = durationEnv("SESSION_TOKEN_TTL", defaultSessionTokenTTL); err != nil {
		return Config{}, err
	}
	if cfg.OTPTTL, err = durationEnv("OTP_TTL", defaultOTPTTL); err != nil {
		return Config{}, err
	}
	if cfg.OCRTimeout, err = durationEnv("OCR_TIMEOUT", defaultOCRTimeout); err != nil {
		return Config{}, err
	}
	if cfg.StaleRegistrationAge, err = durationEnv("STALE_REGISTRATION_AGE", defaultStaleAge); err != nil {
		return Config{}, err
	}
	if cfg.PhoneDigits, err = intEnv("PHONE_DIGITS", defaultPhoneDigits); err != nil {
		return Config{}, err
	}
	if cfg.LoginRateLimit, err = intEnv("LOGIN_RATE_LIMIT", defaultLoginRateLimit); err != nil {
		return Config{}, err
	}
	if cfg.LLMTimeout, err = durationEnv("LLM_TIMEOUT", defaultLLMTimeout); err != nil {
		return Config{}, err
	}
	if cfg.AdvisorSessionTTL, err = durationEnv("ADVISOR_SESSION_TTL", defaultAdvisorTTL); err != nil {
		return Config{}, err
	}
	if cfg.AdvisorHistoryLimit, err = intEnv("ADVISOR_HISTORY_LIMIT", defaultAdvisorHistory); err != nil {
		return Config{}, err
	}
	if cfg.FaceMinConfidence, err = floatEnv("FACE_MIN_CONFIDENCE", defaultFaceConfidence); err != nil {
		return Config{}, err
	}
	if v := os.Getenv("REQUIRE_PHONE_OTP"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid REQUIRE_PHONE_OTP: %w", err)
		}
		cfg.RequirePhoneOTP = b
	}

	switch cfg.FaceDetector {
	case "":
		cfg.FaceDetector = FaceDetectorRekognition
		if cfg.IsDev() {
			cfg.FaceDetector = FaceDetectorStatic
		}
	case FaceDetectorRekognition, FaceDetectorStatic:
	default:
		return Config{}, fmt.Errorf("invalid FACE_DETECTOR %q", cfg.FaceDetector)
	}

	if cfg.IsDev() {
		if cfg.JWTSecret == "" {
			cfg.JWTSecret = devJWTSecret
		}
		return cfg, nil
	}

	if cfg.FaceDetector == FaceDetectorStatic {
		return Config{}, fmt.Errorf("FACE_DETECTOR=static is only allowed in development")
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL must be set")
	}
	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("REDIS_URL must be set")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET must be set")
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// IsDev reports whether the service runs in a development environment.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// durationEnv accepts KEY_SECONDS as an integer or KEY as a Go duration string.
func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	if v := os.Getenv(key + "_SECONDS"); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s_SECONDS: %w", key, err)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", key, err)
		}
		return d, nil
	}
	return fallback, nil
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func floatEnv(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}
