package config

import (
	"time"
)

type DB struct {
	Driver      string `envconfig:"DRIVER" default:"postgres"`
	Url         string `envconfig:"URL"`
	AutoMigrate bool   `envconfig:"AUTO_MIGRATE" default:"false"`
	// Seed loads the demo dataset on startup. The memory driver always seeds.
	Seed bool `envconfig:"SEED" default:"false"`
}

type Jwt struct {
	Secret string        `envconfig:"SECRET"`
	Expiry time.Duration `envconfig:"EXPIRY" default:"24h"`
}

type Auth struct {
	Jwt *Jwt `envconfig:"JWT"`
}

type Redis struct {
	URL          string        `envconfig:"URL"`
	KeyPrefix    string        `envconfig:"KEY_PREFIX" default:"spendsense:"`
	PoolSize     int           `envconfig:"POOL_SIZE" default:"10"`
	DialTimeout  time.Duration `envconfig:"DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"3s"`
}

type RateLimit struct {
	MaxRequests int           `envconfig:"MAX_REQUESTS" default:"60"`
	Window      time.Duration `envconfig:"WINDOW" default:"1m"`
}

// Analysis holds the fixed thresholds used by the feature analyzers and personas.
type Analysis struct {
	ShortWindowDays          int `envconfig:"SHORT_WINDOW_DAYS" default:"30"`
	LongWindowDays           int `envconfig:"LONG_WINDOW_DAYS" default:"180"`
	SubscriptionLookbackDays int `envconfig:"SUBSCRIPTION_LOOKBACK_DAYS" default:"90"`

	MinRecurringOccurrences  int     `envconfig:"MIN_RECURRING_OCCURRENCES" default:"3"`
	MinRecurringMerchants    int     `envconfig:"MIN_RECURRING_MERCHANTS" default:"3"`
	MinMonthlyRecurringSpend float64 `envconfig:"MIN_MONTHLY_RECURRING_SPEND" default:"50"`
	MinSubscriptionShare     float64 `envconfig:"MIN_SUBSCRIPTION_SHARE" default:"0.10"`

	MaxMedianPayGapDays     float64 `envconfig:"MAX_MEDIAN_PAY_GAP_DAYS" default:"45"`
	MinCashFlowBufferMonths float64 `envconfig:"MIN_CASH_FLOW_BUFFER_MONTHS" default:"1"`

	MinSavingsGrowthRate    float64 `envconfig:"MIN_SAVINGS_GROWTH_RATE" default:"0.02"`
	MinMonthlySavingsInflow float64 `envconfig:"MIN_MONTHLY_SAVINGS_INFLOW" default:"200"`

	// SavingsBuilderMaxUtilization is the utilization every card must stay
	// under before savings products are suggested.
	SavingsBuilderMaxUtilization float64 `envconfig:"SAVINGS_BUILDER_MAX_UTILIZATION" default:"0.30"`
}

type Guardrail struct {
	ExtraProhibitedTerms []string `envconfig:"EXTRA_PROHIBITED_TERMS"`
}

type Log struct {
	Level      int    `envconfig:"LEVEL" default:"0"`
	Format     string `envconfig:"FORMAT" default:"json"`
	TimeFormat string `envconfig:"TIME_FORMAT" default:"2006-01-02 15:04:05"`
	Prefix     string `envconfig:"PREFIX" default:"[spendsense]"`
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
	Analysis  *Analysis  `envconfig:"ANALYSIS"`
	Guardrail *Guardrail `envconfig:"GUARDRAIL"`
}

// DefaultAnalysis returns the analysis thresholds used when no environment is loaded.
func DefaultAnalysis() *Analysis {
	return &Analysis{
		ShortWindowDays:              30,
		LongWindowDays:               180,
		SubscriptionLookbackDays:     90,
		MinRecurringOccurrences:      3,
		MinRecurringMerchants:        3,
		MinMonthlyRecurringSpend:     50,
		MinSubscriptionShare:         0.10,
		MaxMedianPayGapDays:          45,
		MinCashFlowBufferMonths:      1,
		MinSavingsGrowthRate:         0.02,
		MinMonthlySavingsInflow:      200,
		SavingsBuilderMaxUtilization: 0.30,
	}
}
