package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"gymbook/internal/schedule"
)

// Machine is a bookable machine offered by the form.
type Machine struct {
	ID    string `yaml:"id" json:"id"`
	Label string `yaml:"label" json:"label"`
}

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Endpoint struct {
		PlaceholderURL string  `yaml:"placeholder_url"`
		TimeoutSeconds int     `yaml:"timeout_seconds"`
		RatePerSecond  float64 `yaml:"rate_per_second"`
		RateBurst      int     `yaml:"rate_burst"`
	} `yaml:"endpoint"`

	Booking struct {
		SlotStartHour int       `yaml:"slot_start_hour"`
		SlotEndHour   int       `yaml:"slot_end_hour"`
		DaysAhead     int       `yaml:"days_ahead"`
		Machines      []Machine `yaml:"machines"`
	} `yaml:"booking"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Redis struct {
		Address         string `yaml:"address"`
		Password        string `yaml:"password"`
		DB              int    `yaml:"db"`
		CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
	} `yaml:"redis"`

	Telegram struct {
		BotToken string  `yaml:"bot_token"`
		ChatIDs  []int64 `yaml:"chat_ids"`
	} `yaml:"telegram"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns a config with all defaults applied and no file read.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Endpoint.TimeoutSeconds <= 0 {
		c.Endpoint.TimeoutSeconds = 15
	}
	if c.Booking.SlotStartHour == 0 && c.Booking.SlotEndHour == 0 {
		c.Booking.SlotStartHour = schedule.DefaultStartHour
		c.Booking.SlotEndHour = schedule.DefaultEndHour
	}
	if c.Booking.DaysAhead <= 0 {
		c.Booking.DaysAhead = schedule.DefaultDaysAhead
	}
	if len(c.Booking.Machines) == 0 {
		c.Booking.Machines = []Machine{{ID: "underwater-treadmill", Label: "ลู่วิ่งในน้ำ"}}
	}
	if c.Database.Path == "" {
		c.Database.Path = "data/gymbook.db"
	}
}

// EndpointTimeout returns the per-request timeout for the gateway.
func (c *Config) EndpointTimeout() time.Duration {
	return time.Duration(c.Endpoint.TimeoutSeconds) * time.Second
}
