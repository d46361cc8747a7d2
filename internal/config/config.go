package config

import (
	"fmt"
	"time"

	"goalengine/pkg/config"
)

type Config struct {
	DB     config.DBConfig     `yaml:"db"`
	MQ     config.MQConfig     `yaml:"mq"`
	Redis  config.RedisConfig  `yaml:"redis"`
	JWT    config.JWTConfig    `yaml:"jwt"`
	Server config.ServerConfig `yaml:"server"`
	Engine config.EngineConfig `yaml:"engine"`
	Runner config.RunnerConfig `yaml:"runner"`
}

// Load reads the layered config selected by CONFIG_ENV from CONFIG_DIR.
func Load() (*Config, error) {
	// 使用统一配置中心
	return LoadFrom(config.GetConfigEnv(), config.GetEnv("CONFIG_DIR", "config"))
}

func LoadFrom(env, dir string) (*Config, error) {
	cfgMap, err := config.LoadConfig(env, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	var cfg Config
	if err := config.Decode(cfgMap, &cfg); err != nil {
		return nil, err
	}

	// 环境变量覆盖（优先级最高）
	config.OverrideDBFromEnv(&cfg.DB)
	config.OverrideMQFromEnv(&cfg.MQ)
	config.OverrideRedisFromEnv(&cfg.Redis)
	config.OverrideJWTFromEnv(&cfg.JWT)
	config.OverrideServerFromEnv(&cfg.Server)
	config.OverrideEngineFromEnv(&cfg.Engine)
	config.OverrideRunnerFromEnv(&cfg.Runner)

	cfg.applyDefaults()
	if _, err := cfg.Engine.Location(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.DB.SlowQuery <= 0 {
		c.DB.SlowQuery = 200 * time.Millisecond
	}
	if c.MQ.Prefetch <= 0 {
		c.MQ.Prefetch = 16
	}
	if c.Redis.DedupTTL <= 0 {
		c.Redis.DedupTTL = 48 * time.Hour
	}
	if c.Engine.MaxOccurrences <= 0 {
		c.Engine.MaxOccurrences = 365
	}
	if c.Runner.Interval <= 0 {
		c.Runner.Interval = 24 * time.Hour
	}
}
