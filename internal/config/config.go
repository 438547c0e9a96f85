package config

import (
	"os"
	"path"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Public  Public
	Private Private
}

type Public struct {
	Guard    Guard         `yaml:"guard"`
	JwtTTL   time.Duration `yaml:"jwt_ttl"`
	LogLevel string        `yaml:"log_level"`
	LogJSON  bool          `yaml:"log_json"`

	SecureCookies bool `yaml:"secure_cookies"`
}

// Guard holds every toggle and weight consumed by the decision engine.
// List-valued options are newline-delimited, case-insensitive text blocks.
type Guard struct {
	Enabled   bool   `yaml:"enabled"`
	Threshold int    `yaml:"threshold"`
	Action    string `yaml:"action"` // block|verify|moderate

	// Pattern + reputation checks restricted to this provider's addresses.
	ProviderDomain      string `yaml:"provider_domain"`
	PatternCheckEnabled bool   `yaml:"pattern_check_enabled"`
	SpamKeywords        string `yaml:"spam_keywords"`

	WhitelistEnabled bool   `yaml:"whitelist_enabled"`
	Whitelist        string `yaml:"whitelist"`
	BlacklistEnabled bool   `yaml:"blacklist_enabled"`
	Blacklist        string `yaml:"blacklist"`

	DisposableCheckEnabled  bool   `yaml:"disposable_check_enabled"`
	DisposableAPIEnabled    bool   `yaml:"disposable_api_enabled"`
	CustomDisposableDomains string `yaml:"custom_disposable_domains"`

	EmailRepEnabled bool `yaml:"emailrep_enabled"`
	SfsEnabled      bool `yaml:"sfs_enabled"`

	HoneypotEnabled    bool  `yaml:"honeypot_enabled"`
	TimingCheckEnabled bool  `yaml:"timing_check_enabled"`
	MinFormTime        int64 `yaml:"min_form_time"` // seconds
	MaxFormTime        int64 `yaml:"max_form_time"` // seconds

	BrowserCheckEnabled bool `yaml:"browser_check_enabled"`

	TimeRestrictionEnabled bool `yaml:"time_restriction_enabled"`
	AllowedStartHour       int  `yaml:"allowed_start_hour"`
	AllowedEndHour         int  `yaml:"allowed_end_hour"`

	RateLimitEnabled       bool `yaml:"rate_limit_enabled"`
	RateLimitMax           int  `yaml:"rate_limit_max"`
	RateLimitWindowMinutes int  `yaml:"rate_limit_window_minutes"`

	AutoBanEnabled       bool `yaml:"auto_ban_enabled"`
	AutoBanThreshold     int  `yaml:"auto_ban_threshold"`
	AutoBanWindowMinutes int  `yaml:"auto_ban_window_minutes"`
	BanDurationHours     int  `yaml:"ban_duration_hours"`

	ReputationCacheTTLMinutes int `yaml:"reputation_cache_ttl_minutes"`

	LogSuspicious     bool   `yaml:"log_suspicious"`
	DBLog             bool   `yaml:"db_log"`
	LogErrors         bool   `yaml:"log_errors"`
	NotificationEmail string `yaml:"notification_email"`
}

type Private struct {
	Pg    Pg    `yaml:"pg"`
	Redis Redis `yaml:"redis"`
	Smtp  Smtp  `yaml:"smtp"`

	JwtKey            string `yaml:"jwt_key"`
	AdminPasswordHash string `yaml:"admin_password_hash"` // bcrypt
	TimingTokenKey    string `yaml:"timing_token_key"`

	EmailRepKey string `yaml:"emailrep_key"`
	SfsKey      string `yaml:"sfs_key"`
}

type Pg struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Dbname   string `yaml:"dbname"`
}

// Redis backs the optional reputation response cache.
// Empty Addr disables caching entirely.
type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type Smtp struct {
	Server   string `yaml:"server"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Sender   string `yaml:"sender"`
	Timeout  int    `yaml:"timeout"` // seconds
}

func (c *Config) JwtKey() string {
	return c.Private.JwtKey
}

func (c *Config) JwtTTL() time.Duration {
	return c.Public.JwtTTL
}

// RateLimitWindow returns the sliding window used for attempt counting.
func (g *Guard) RateLimitWindow() time.Duration {
	return time.Duration(g.RateLimitWindowMinutes) * time.Minute
}

// AutoBanWindow returns the sliding window used for suspicious-attempt counting.
func (g *Guard) AutoBanWindow() time.Duration {
	return time.Duration(g.AutoBanWindowMinutes) * time.Minute
}

// BanDuration returns the default duration of an issued ban.
func (g *Guard) BanDuration() time.Duration {
	return time.Duration(g.BanDurationHours) * time.Hour
}

func (g *Guard) ReputationCacheTTL() time.Duration {
	return time.Duration(g.ReputationCacheTTLMinutes) * time.Minute
}

func mustLoadPath(configPath string, output interface{}) {
	// check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		panic("can't read config file")
	}

	err = yaml.Unmarshal(configFile, output)
	if err != nil {
		panic("can't unmarshal config file")
	}
}

func MustLoad(configFolder string) *Config {
	var public Public
	mustLoadPath(path.Join(configFolder, "public.yaml"), &public)

	var private Private
	mustLoadPath(path.Join(configFolder, "private.yaml"), &private)

	return &Config{public, private}
}
