package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// ErrInvalidConfig is returned when loaded values fail validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Load reads the first environment file found among envFilePath (searched
// upwards from the working directory), falling back to .env, and then
// processes the environment into an App.
func Load(envFilePath ...string) (*App, error) {
	logger := slog.Default()
	logger.Info("Loading environment variables")

	if len(envFilePath) == 0 {
		logger.Debug("No environment file specified, trying default .env")
		if err := godotenv.Load(); err != nil {
			logger.Warn("No .env file found in current directory")
		}
		return loadFromEnv()
	}

	for _, path := range envFilePath {
		foundPath, err := FindEnvFile(path)
		if err != nil {
			logger.Debug("Environment file not found", "path", path, "error", err)
			continue
		}

		logger.Info("Loading environment from file", "path", foundPath)
		if err := godotenv.Load(foundPath); err != nil {
			logger.Error("Failed to load environment file", "path", foundPath, "error", err)
			continue
		}
		return loadFromEnv()
	}

	logger.Info("No valid environment files found, using default .env")
	if err := godotenv.Load(); err != nil {
		logger.Warn("No .env file found in current directory")
	}
	return loadFromEnv()
}

func loadFromEnv() (*App, error) {
	var cfg App
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	slog.Default().Info("App config loaded",
		"env", cfg.Env,
		"db", maskValue(cfg.DB.Url),
		"redis", maskValue(cfg.Redis.URL),
		"telegram_token", maskValue(cfg.Telegram.BotToken),
		"jwt_expiry", cfg.Auth.Jwt.Expiry,
		"rate_limit_max_requests", cfg.RateLimit.MaxRequests,
		"rate_limit_window", cfg.RateLimit.Window,
		"pricing_coin_price_mvr", cfg.Pricing.CoinPriceMvr.String(),
		"pricing_rate_policy", cfg.Pricing.RatePolicy,
		"pricing_cache_ttl", cfg.Pricing.CacheTTL,
	)
	return &cfg, nil
}

// Validate checks values envconfig cannot express.
func (a *App) Validate() error {
	if a.Pricing != nil {
		switch a.Pricing.RatePolicy {
		case RatePolicyApproval, RatePolicySubmission:
		default:
			return fmt.Errorf("%w: PRICING_RATE_POLICY must be %q or %q, got %q",
				ErrInvalidConfig, RatePolicyApproval, RatePolicySubmission, a.Pricing.RatePolicy)
		}
		if !a.Pricing.CoinPriceMvr.IsPositive() {
			return fmt.Errorf("%w: PRICING_COIN_PRICE_MVR must be positive", ErrInvalidConfig)
		}
		if a.Pricing.CostPost < 0 || a.Pricing.CostConnect < 0 {
			return fmt.Errorf("%w: action costs cannot be negative", ErrInvalidConfig)
		}
	}
	return nil
}

// FindEnvFile searches for filename in the working directory and each of
// its parents. An empty filename means .env.
func FindEnvFile(filename string) (string, error) {
	if filename == "" {
		filename = ".env"
	}
	curr, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(curr, filename)
		if _, err = os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(curr)
		if parent == curr {
			break
		}
		curr = parent
	}
	return "", os.ErrNotExist
}

func maskValue(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 6 {
		return "****"
	}
	return key[:2] + "****" + key[len(key)-4:]
}
