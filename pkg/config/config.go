package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Quota    QuotaConfig    `mapstructure:"quota"`
	Lookup   LookupConfig   `mapstructure:"lookup"`
	Judge    JudgeConfig    `mapstructure:"judge"`
	Learner  LearnerConfig  `mapstructure:"learner"`
	Persona  PersonaConfig  `mapstructure:"persona"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TLS      bool   `mapstructure:"tls"`
}

// QuotaConfig bounds outbound lookup traffic. The reserve thresholds decide
// when low/normal priority callers stop being admitted so the last units of
// daily budget stay available for high priority probes. The defaults are
// hand-tuned carry-overs, not derived values; tune at product level.
type QuotaConfig struct {
	DailyLimit    int           `mapstructure:"daily_limit"`
	MonthlyLimit  int           `mapstructure:"monthly_limit"`
	LowReserve    int           `mapstructure:"low_reserve"`
	NormalReserve int           `mapstructure:"normal_reserve"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl"`
}

type LookupConfig struct {
	Endpoint    string        `mapstructure:"endpoint"`
	APIKey      string        `mapstructure:"api_key"`
	ResultCount int           `mapstructure:"result_count"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type JudgeConfig struct {
	Provider    string        `mapstructure:"provider"`
	Model       string        `mapstructure:"model"`
	APIKey      string        `mapstructure:"api_key"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type LearnerConfig struct {
	CandidateCap  int `mapstructure:"candidate_cap"`
	MinTermLength int `mapstructure:"min_term_length"`
	QueueSize     int `mapstructure:"queue_size"`
}

type PersonaConfig struct {
	// FallbackLines maps persona id to the deflection lines substituted for a
	// reply the guard rejects. Merged over the built-in defaults.
	FallbackLines       map[string][]string `mapstructure:"fallback_lines"`
	ExtraForbiddenTerms map[string][]string `mapstructure:"extra_forbidden_terms"`
}

var globalConfig Config

func Load(configPath string) error {
	if err := loadConfigFile(configPath, "config", &globalConfig); err != nil {
		return fmt.Errorf("could not load config file: %w", err)
	}
	setDefaultValues()
	return validate()
}

func loadConfigFile(configPath, fileName string, out interface{}) error {
	viper.SetConfigName(fileName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configPath)
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("config file %s.yaml not found, using only environment variables", fileName)
		}
		return fmt.Errorf("error reading config file %s.yaml: %w", fileName, err)
	}

	if err := viper.Unmarshal(out); err != nil {
		return fmt.Errorf("failed to unmarshal %s config: %w", fileName, err)
	}

	return nil
}

func setDefaultValues() {
	if globalConfig.Database.SSLMode == "" {
		globalConfig.Database.SSLMode = "disable"
	}
	if globalConfig.Quota.DailyLimit == 0 {
		globalConfig.Quota.DailyLimit = 90
	}
	if globalConfig.Quota.MonthlyLimit == 0 {
		globalConfig.Quota.MonthlyLimit = 2700
	}
	if globalConfig.Quota.LowReserve == 0 {
		globalConfig.Quota.LowReserve = 2
	}
	if globalConfig.Quota.NormalReserve == 0 {
		globalConfig.Quota.NormalReserve = 1
	}
	if globalConfig.Quota.CacheTTL == 0 {
		globalConfig.Quota.CacheTTL = 7 * 24 * time.Hour
	}
	if globalConfig.Lookup.ResultCount == 0 {
		globalConfig.Lookup.ResultCount = 3
	}
	if globalConfig.Lookup.Timeout == 0 {
		globalConfig.Lookup.Timeout = 10 * time.Second
	}
	if globalConfig.Judge.Timeout == 0 {
		globalConfig.Judge.Timeout = 60 * time.Second
	}
	if globalConfig.Judge.MaxTokens == 0 {
		globalConfig.Judge.MaxTokens = 1000
	}
	if globalConfig.Judge.Temperature == 0 {
		globalConfig.Judge.Temperature = 0.1
	}
	if globalConfig.Learner.CandidateCap == 0 {
		globalConfig.Learner.CandidateCap = 3
	}
	if globalConfig.Learner.MinTermLength == 0 {
		globalConfig.Learner.MinTermLength = 2
	}
	if globalConfig.Learner.QueueSize == 0 {
		globalConfig.Learner.QueueSize = 64
	}
	if globalConfig.Logging.Level == "" {
		globalConfig.Logging.Level = "info"
	}
}

func validate() error {
	if globalConfig.Judge.Provider == "" {
		return fmt.Errorf("judge provider is required")
	}
	if globalConfig.Judge.Model == "" {
		return fmt.Errorf("judge model is required")
	}
	return nil
}

func GetConfig() *Config {
	return &globalConfig
}
