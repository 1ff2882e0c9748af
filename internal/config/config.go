package config

import (
	"bytes"
	"fmt"
	"math"
	"net"
	neturl "net/url"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"

	defaultPort       = 2333
	defaultEnv        = "development"
	defaultDBHost     = "127.0.0.1"
	defaultDBPort     = 3306
	defaultDBUser     = "root"
	defaultDBPassword = "password"
	defaultDBName     = "skillpath"
	defaultDBCharset  = "utf8mb4"
	defaultDBLoc      = "Local"
	defaultRedisHost  = "localhost"
	defaultRedisPort  = 6379

	defaultSemanticWeight = 0.5
	defaultLexicalWeight  = 0.5

	defaultEmbeddingModel = "text-embedding-3-small"

	defaultCourseTimeoutSeconds    = 60
	defaultCourseRetryAttempts     = 3
	defaultCourseRetryBaseSeconds  = 2
	defaultCourseRetryMaxSeconds   = 10
	defaultResourceTimeoutSeconds  = 10
	defaultResourceCacheTTLSeconds = 3600
)

var defaultInvidiousInstances = []string{
	"https://inv.nadeko.net",
	"https://invidious.nerdvpn.de",
	"https://yewtu.be",
}

// AppConfig holds runtime startup configuration loaded from YAML.
type AppConfig struct {
	Port           int             `yaml:"port"`
	Env            string          `yaml:"env"` // "development" | "production"
	CatalogPath    string          `yaml:"catalog_path"`
	AllowedOrigins []string        `yaml:"allowed_origins"`
	Database       DatabaseConfig  `yaml:"database"`
	Redis          RedisConfig     `yaml:"redis"`
	AI             AIConfig        `yaml:"ai"`
	Matcher        MatcherConfig   `yaml:"matcher"`
	Course         CourseConfig    `yaml:"course"`
	Resources      ResourcesConfig `yaml:"resources"`
}

type DatabaseConfig struct {
	DSN       string `yaml:"dsn"`
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	User      string `yaml:"user"`
	Password  string `yaml:"password"`
	Name      string `yaml:"name"`
	Charset   string `yaml:"charset"`
	ParseTime bool   `yaml:"parse_time"`
	Loc       string `yaml:"loc"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TLS      bool   `yaml:"tls"`
}

// AIProvider describes a configured generative/embedding backend.
type AIProvider struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	Type         string `yaml:"type"` // OpenAI | OpenAI-Compatible | Anthropic
	APIKey       string `yaml:"api_key"`
	Endpoint     string `yaml:"endpoint"`
	DefaultModel string `yaml:"default_model"`
	Enabled      bool   `yaml:"enabled"`
}

// ModelAssignment binds one generation stage to a provider and model.
type ModelAssignment struct {
	ProviderID string `yaml:"provider_id"`
	Model      string `yaml:"model"`
}

type AIConfig struct {
	Providers         []AIProvider     `yaml:"providers"`
	OutlineModel      *ModelAssignment `yaml:"outline_model"`
	WeekModel         *ModelAssignment `yaml:"week_model"`
	DayModel          *ModelAssignment `yaml:"day_model"`
	EmbeddingProvider string           `yaml:"embedding_provider"`
	EmbeddingModel    string           `yaml:"embedding_model"`
}

type MatcherConfig struct {
	SemanticWeight float64 `yaml:"semantic_weight"`
	LexicalWeight  float64 `yaml:"lexical_weight"`
}

type CourseConfig struct {
	TimeoutSeconds        int `yaml:"timeout_seconds"`
	RetryAttempts         int `yaml:"retry_attempts"`
	RetryBaseDelaySeconds int `yaml:"retry_base_delay_seconds"`
	RetryMaxDelaySeconds  int `yaml:"retry_max_delay_seconds"`
	CacheTTLSeconds       int `yaml:"cache_ttl_seconds"` // 0 = retain forever
}

type ResourcesConfig struct {
	Enable             bool     `yaml:"enable"`
	InvidiousInstances []string `yaml:"invidious_instances"`
	TimeoutSeconds     int      `yaml:"timeout_seconds"`
	CacheTTLSeconds    int      `yaml:"cache_ttl_seconds"`
}

// Load reads and validates the YAML config file.
func Load(configPath string) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		path = DefaultConfigPath
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	cfg := defaultAppConfig()
	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config file %q: %w", path, err)
	}

	normalizeAppConfig(&cfg)
	if err := validateAppConfig(&cfg, path); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func defaultAppConfig() AppConfig {
	return AppConfig{
		Port: defaultPort,
		Env:  defaultEnv,
		Database: DatabaseConfig{
			Host:      defaultDBHost,
			Port:      defaultDBPort,
			User:      defaultDBUser,
			Password:  defaultDBPassword,
			Name:      defaultDBName,
			Charset:   defaultDBCharset,
			ParseTime: true,
			Loc:       defaultDBLoc,
		},
		Redis: RedisConfig{
			Host: defaultRedisHost,
			Port: defaultRedisPort,
		},
		AI: AIConfig{
			EmbeddingModel: defaultEmbeddingModel,
		},
		Matcher: MatcherConfig{
			SemanticWeight: defaultSemanticWeight,
			LexicalWeight:  defaultLexicalWeight,
		},
		Course: CourseConfig{
			TimeoutSeconds:        defaultCourseTimeoutSeconds,
			RetryAttempts:         defaultCourseRetryAttempts,
			RetryBaseDelaySeconds: defaultCourseRetryBaseSeconds,
			RetryMaxDelaySeconds:  defaultCourseRetryMaxSeconds,
		},
		Resources: ResourcesConfig{
			Enable:             true,
			InvidiousInstances: append([]string(nil), defaultInvidiousInstances...),
			TimeoutSeconds:     defaultResourceTimeoutSeconds,
			CacheTTLSeconds:    defaultResourceCacheTTLSeconds,
		},
	}
}

func normalizeAppConfig(cfg *AppConfig) {
	cfg.Env = strings.ToLower(strings.TrimSpace(cfg.Env))
	if cfg.Env == "" {
		cfg.Env = defaultEnv
	}
	cfg.CatalogPath = strings.TrimSpace(cfg.CatalogPath)

	origins := make([]string, 0, len(cfg.AllowedOrigins))
	for _, origin := range cfg.AllowedOrigins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	cfg.AllowedOrigins = origins

	cfg.AI.EmbeddingProvider = strings.TrimSpace(cfg.AI.EmbeddingProvider)
	cfg.AI.EmbeddingModel = strings.TrimSpace(cfg.AI.EmbeddingModel)
	if cfg.AI.EmbeddingModel == "" {
		cfg.AI.EmbeddingModel = defaultEmbeddingModel
	}

	if cfg.Course.TimeoutSeconds <= 0 {
		cfg.Course.TimeoutSeconds = defaultCourseTimeoutSeconds
	}
	if cfg.Course.RetryAttempts <= 0 {
		cfg.Course.RetryAttempts = defaultCourseRetryAttempts
	}
	if cfg.Course.RetryBaseDelaySeconds <= 0 {
		cfg.Course.RetryBaseDelaySeconds = defaultCourseRetryBaseSeconds
	}
	if cfg.Course.RetryMaxDelaySeconds < cfg.Course.RetryBaseDelaySeconds {
		cfg.Course.RetryMaxDelaySeconds = defaultCourseRetryMaxSeconds
	}
	if cfg.Course.CacheTTLSeconds < 0 {
		cfg.Course.CacheTTLSeconds = 0
	}

	instances := make([]string, 0, len(cfg.Resources.InvidiousInstances))
	for _, instance := range cfg.Resources.InvidiousInstances {
		if trimmed := strings.TrimRight(strings.TrimSpace(instance), "/"); trimmed != "" {
			instances = append(instances, trimmed)
		}
	}
	if len(instances) == 0 {
		instances = append(instances, defaultInvidiousInstances...)
	}
	cfg.Resources.InvidiousInstances = instances
	if cfg.Resources.TimeoutSeconds <= 0 {
		cfg.Resources.TimeoutSeconds = defaultResourceTimeoutSeconds
	}
	if cfg.Resources.CacheTTLSeconds <= 0 {
		cfg.Resources.CacheTTLSeconds = defaultResourceCacheTTLSeconds
	}
}

func validateAppConfig(cfg *AppConfig, path string) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("invalid port %d in %q, expected 1-65535", cfg.Port, path)
	}
	if cfg.Database.Port < 1 || cfg.Database.Port > 65535 {
		return fmt.Errorf("invalid database.port %d in %q, expected 1-65535", cfg.Database.Port, path)
	}
	if cfg.Redis.Port < 1 || cfg.Redis.Port > 65535 {
		return fmt.Errorf("invalid redis.port %d in %q, expected 1-65535", cfg.Redis.Port, path)
	}
	if cfg.Redis.DB < 0 {
		return fmt.Errorf("invalid redis.db %d in %q, expected >= 0", cfg.Redis.DB, path)
	}
	if cfg.Matcher.SemanticWeight < 0 || cfg.Matcher.LexicalWeight < 0 {
		return fmt.Errorf("matcher weights in %q must be non-negative", path)
	}
	if sum := cfg.Matcher.SemanticWeight + cfg.Matcher.LexicalWeight; math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("matcher weights in %q must sum to 1.0, got %.4f", path, sum)
	}
	for i, provider := range cfg.AI.Providers {
		if strings.TrimSpace(provider.ID) == "" {
			return fmt.Errorf("ai.providers[%d] in %q is missing an id", i, path)
		}
	}
	return nil
}

// DSNValue returns the MySQL DSN, assembled from parts when not given directly.
func (c DatabaseConfig) DSNValue() string {
	if v := strings.TrimSpace(c.DSN); v != "" {
		return v
	}

	params := neturl.Values{}
	params.Set("charset", c.Charset)
	params.Set("parseTime", strconv.FormatBool(c.ParseTime))
	params.Set("loc", c.Loc)

	auth := c.User
	if c.Password != "" {
		auth += ":" + c.Password
	}

	return fmt.Sprintf("%s@tcp(%s)/%s?%s",
		auth,
		net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		c.Name,
		params.Encode(),
	)
}

// URLValue returns the redis connection URL, assembled from parts when not given directly.
func (c RedisConfig) URLValue() string {
	if v := strings.TrimSpace(c.URL); v != "" {
		if strings.HasPrefix(v, "redis://") || strings.HasPrefix(v, "rediss://") {
			return v
		}
		return "redis://" + v
	}

	scheme := "redis"
	if c.TLS {
		scheme = "rediss"
	}
	u := &neturl.URL{
		Scheme: scheme,
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + strconv.Itoa(c.DB),
	}
	switch {
	case c.Username != "" && c.Password != "":
		u.User = neturl.UserPassword(c.Username, c.Password)
	case c.Username != "":
		u.User = neturl.User(c.Username)
	case c.Password != "":
		u.User = neturl.UserPassword("", c.Password)
	}
	return u.String()
}

// Provider returns the enabled provider with the given id, or nil.
func (c AIConfig) Provider(id string) *AIProvider {
	id = strings.TrimSpace(id)
	for _, provider := range c.Providers {
		if !provider.Enabled {
			continue
		}
		if id == "" || strings.TrimSpace(provider.ID) == id {
			selected := provider
			return &selected
		}
	}
	return nil
}

func (c *AppConfig) IsDev() bool {
	return strings.EqualFold(c.Env, defaultEnv)
}
