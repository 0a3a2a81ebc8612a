package config

import (
	"time"

	"github.com/shopspring/decimal"
)

// Rate policies for converting an approved top-up into coins.
const (
	// RatePolicyApproval prices the top-up with the coin price in force
	// when the administrator approves it.
	RatePolicyApproval = "approval"
	// RatePolicySubmission prices the top-up with the coin price
	// snapshotted when the user submitted it.
	RatePolicySubmission = "submission"
)

type DB struct {
	Url            string `envconfig:"URL" default:"sqlite://atollmatch.db"`
	MigrationsPath string `envconfig:"MIGRATIONS_PATH" default:"internal/migrations"`
	MaxOpenConns   int    `envconfig:"MAX_OPEN_CONNS" default:"25"`
}

type Jwt struct {
	Secret string        `envconfig:"SECRET" required:"true"`
	Expiry time.Duration `envconfig:"EXPIRY" default:"24h"`
}

type Auth struct {
	Jwt *Jwt `envconfig:"JWT"`
}

type Redis struct {
	URL    string `envconfig:"URL"`
	Stream string `envconfig:"STREAM" default:"atollmatch-events"`
	Group  string `envconfig:"GROUP" default:"atollmatch"`
}

type RateLimit struct {
	MaxRequests int           `envconfig:"MAX_REQUESTS" default:"100"`
	Window      time.Duration `envconfig:"WINDOW" default:"1m"`
}

type Telegram struct {
	BotToken string        `envconfig:"BOT_TOKEN"`
	Timeout  time.Duration `envconfig:"TIMEOUT" default:"10s"`
}

// Pricing holds the defaults written to the settings row on first start.
// Once the row exists, administrators change prices at runtime and these
// values are ignored.
type Pricing struct {
	CoinPriceMvr decimal.Decimal `envconfig:"COIN_PRICE_MVR" default:"10"`
	CostPost     int64           `envconfig:"COST_POST" default:"2"`
	CostConnect  int64           `envconfig:"COST_CONNECT" default:"1"`
	CacheTTL     time.Duration   `envconfig:"CACHE_TTL" default:"30s"`
	RatePolicy   string          `envconfig:"RATE_POLICY" default:"approval"`
}

type Log struct {
	Level      int    `envconfig:"LEVEL" default:"0"`
	Format     string `envconfig:"FORMAT" default:"json"`
	TimeFormat string `envconfig:"TIME_FORMAT" default:"2006-01-02 15:04:05"`
	Prefix     string `envconfig:"PREFIX" default:"[atollmatch]"`
}

type Server struct {
	Scheme string `envconfig:"SCHEME" default:"http"`
	Host   string `envconfig:"HOST" default:"localhost"`
	Port   int    `envconfig:"PORT" default:"3000"`
}

type App struct {
	Env       string     `envconfig:"APP_ENV" default:"development"`
	Server    *Server    `envconfig:"SERVER"`
	Log       *Log       `envconfig:"LOG"`
	DB        *DB        `envconfig:"DATABASE"`
	Auth      *Auth      `envconfig:"AUTH"`
	Redis     *Redis     `envconfig:"REDIS"`
	RateLimit *RateLimit `envconfig:"RATE_LIMIT"`
	Telegram  *Telegram  `envconfig:"TELEGRAM"`
	Pricing   *Pricing   `envconfig:"PRICING"`
}
