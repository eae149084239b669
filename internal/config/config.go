package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type SeedAdmin struct {
	Email string `yaml:"email"`
	Name  string `yaml:"name"`
}

type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	DB struct {
		DSN string `yaml:"dsn"`
	} `yaml:"db"`
	Orders struct {
		DedupWindowMinutes int `yaml:"dedup_window_minutes"`
		InflightLimit      int `yaml:"inflight_limit"`
		RecentLimit        int `yaml:"recent_limit"`
	} `yaml:"orders"`
	Admin struct {
		SessionTTLHours int         `yaml:"session_ttl_hours"`
		Seeds           []SeedAdmin `yaml:"seeds"`
	} `yaml:"admin"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	if cfg.Server.Addr == "" {
		return nil, errors.New("server.addr is required")
	}
	if cfg.DB.DSN == "" {
		return nil, errors.New("db.dsn is required")
	}
	if len(cfg.Admin.Seeds) == 0 {
		return nil, errors.New("admin.seeds must list at least one administrator")
	}
	for _, seed := range cfg.Admin.Seeds {
		if seed.Email == "" {
			return nil, errors.New("admin seed email is required")
		}
	}
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("DB_DSN"); v != "" {
		cfg.DB.DSN = v
	}
	if v := os.Getenv("ORDER_DEDUP_WINDOW_MINUTES"); v != "" {
		cfg.Orders.DedupWindowMinutes = atoiOr(cfg.Orders.DedupWindowMinutes, v)
	}
	if v := os.Getenv("ORDER_INFLIGHT_LIMIT"); v != "" {
		cfg.Orders.InflightLimit = atoiOr(cfg.Orders.InflightLimit, v)
	}
	if v := os.Getenv("ORDER_RECENT_LIMIT"); v != "" {
		cfg.Orders.RecentLimit = atoiOr(cfg.Orders.RecentLimit, v)
	}
	if v := os.Getenv("ADMIN_SESSION_TTL_HOURS"); v != "" {
		cfg.Admin.SessionTTLHours = atoiOr(cfg.Admin.SessionTTLHours, v)
	}
	if v := os.Getenv("ADMIN_SEEDS"); v != "" {
		cfg.Admin.Seeds = parseSeedList(v)
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Orders.DedupWindowMinutes <= 0 {
		cfg.Orders.DedupWindowMinutes = 5
	}
	if cfg.Orders.InflightLimit <= 0 {
		cfg.Orders.InflightLimit = 1024
	}
	if cfg.Orders.RecentLimit <= 0 {
		cfg.Orders.RecentLimit = 50
	}
	if cfg.Admin.SessionTTLHours <= 0 {
		cfg.Admin.SessionTTLHours = 24
	}
}

// parseSeedList reads "email:Name,email:Name". The name part is optional.
func parseSeedList(v string) []SeedAdmin {
	parts := strings.Split(v, ",")
	out := make([]SeedAdmin, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		email, name, _ := strings.Cut(p, ":")
		out = append(out, SeedAdmin{Email: strings.TrimSpace(email), Name: strings.TrimSpace(name)})
	}
	return out
}

func atoiOr(fallback int, v string) int {
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}
