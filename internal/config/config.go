// Package config exposes strongly typed application configuration structs loaded from YAML.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// App captures process-wide runtime settings such as name, environment, metrics, and logging.
type App struct {
	Name        string `yaml:"name"`
	Env         string `yaml:"env"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
	LogFile     string `yaml:"log_file"`
}

// Exchange describes the futures venue connectivity parameters the bot expects.
type Exchange struct {
	Name     string `yaml:"name"`
	Symbol   string `yaml:"symbol"`
	BaseURL  string `yaml:"base_url"`
	Provider string `yaml:"provider"` // feed provider: kucoin or stub
}

// Trading groups position sizing knobs.
type Trading struct {
	Leverage     int     `yaml:"leverage"`
	PositionSize float64 `yaml:"position_size"`
	MaxHistory   int     `yaml:"max_history"`
}

// StrategyParams groups tunable knobs for a strategy implementation.
type StrategyParams struct {
	RSIPeriod           int     `yaml:"rsi_period"`
	RSILower            float64 `yaml:"rsi_lower"`
	RSIUpper            float64 `yaml:"rsi_upper"`
	MACDFast            int     `yaml:"macd_fast"`
	MACDSlow            int     `yaml:"macd_slow"`
	MACDSignal          int     `yaml:"macd_signal"`
	SignalBufferSeconds int     `yaml:"signal_buffer_seconds"`
}

// Strategy specifies which strategy is active along with the parameter bundle.
type Strategy struct {
	Mode   string         `yaml:"mode"`
	Params StrategyParams `yaml:"params"`
}

// Risk encodes guard-rails for how much size the executor may take on.
type Risk struct {
	MaxNotionalPerTrade float64 `yaml:"max_notional_per_trade"`
}

// Paper captures paper-trading account settings.
type Paper struct {
	StartingCash float64 `yaml:"starting_cash"`
	FillsPath    string  `yaml:"fills_path"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App      App      `yaml:"app"`
	Exchange Exchange `yaml:"exchange"`
	Trading  Trading  `yaml:"trading"`
	Strategy Strategy `yaml:"strategy"`
	Risk     Risk     `yaml:"risk"`
	Paper    Paper    `yaml:"paper"`
}

// Credentials holds the exchange API secrets sourced from the environment,
// never from the YAML file.
type Credentials struct {
	APIKey        string
	APISecret     string
	APIPassphrase string
}

// ErrMissingCredentials indicates required API secrets were absent from the environment.
var ErrMissingCredentials = errors.New("missing KuCoin API credentials")

// CredentialsFromEnv reads KUCOIN_API_KEY, KUCOIN_API_SECRET, and
// KUCOIN_API_PASSPHRASE. Call godotenv.Load beforehand to honor a .env file.
func CredentialsFromEnv() (Credentials, error) {
	creds := Credentials{
		APIKey:        os.Getenv("KUCOIN_API_KEY"),
		APISecret:     os.Getenv("KUCOIN_API_SECRET"),
		APIPassphrase: os.Getenv("KUCOIN_API_PASSPHRASE"),
	}
	if creds.APIKey == "" || creds.APISecret == "" || creds.APIPassphrase == "" {
		return Credentials{}, ErrMissingCredentials
	}
	return creds, nil
}

// Load reads a YAML file from disk and hydrates a Config struct with defaults applied.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	config.applyDefaults()
	return &config, nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Exchange.BaseURL == "" {
		c.Exchange.BaseURL = "https://api-futures.kucoin.com"
	}
	if c.Exchange.Provider == "" {
		c.Exchange.Provider = "kucoin"
	}
	if c.Trading.Leverage <= 0 {
		c.Trading.Leverage = 5
	}
	if c.Trading.PositionSize <= 0 {
		c.Trading.PositionSize = 1
	}
	if c.Trading.MaxHistory <= 0 {
		c.Trading.MaxHistory = 100
	}
	p := &c.Strategy.Params
	if p.RSIPeriod <= 0 {
		p.RSIPeriod = 14
	}
	if p.RSILower <= 0 {
		p.RSILower = 40
	}
	if p.RSIUpper <= 0 {
		p.RSIUpper = 60
	}
	if p.MACDFast <= 0 {
		p.MACDFast = 12
	}
	if p.MACDSlow <= 0 {
		p.MACDSlow = 26
	}
	if p.MACDSignal <= 0 {
		p.MACDSignal = 9
	}
	if p.SignalBufferSeconds <= 0 {
		p.SignalBufferSeconds = 3
	}
}
