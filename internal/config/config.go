// Package config loads npcsim settings from YAML, .env and NPCBRAIN_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/FREDSAYS-dev/Thesis/arena"
	"github.com/FREDSAYS-dev/Thesis/emotion"
	"github.com/FREDSAYS-dev/Thesis/internal/logging"
	"github.com/FREDSAYS-dev/Thesis/matrix"
)

const EnvPrefix = "NPCBRAIN"

const (
	StoreModeMemory   = "memory"
	StoreModeSQLite   = "sqlite"
	StoreModePostgres = "postgres"
)

type Config struct {
	Matrix   MatrixConfig   `mapstructure:"matrix" yaml:"matrix"`
	Arena    ArenaConfig    `mapstructure:"arena" yaml:"arena"`
	Emotion  EmotionConfig  `mapstructure:"emotion" yaml:"emotion"`
	Store    StoreConfig    `mapstructure:"store" yaml:"store"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Logging  logging.Config `mapstructure:"logging" yaml:"logging"`
	Personas string         `mapstructure:"personas" yaml:"personas"` // persona file; empty uses the built-in cast
}

type MatrixConfig struct {
	BaseEpsilon    float64 `mapstructure:"base_epsilon" yaml:"base_epsilon"`
	LearningRate   float64 `mapstructure:"learning_rate" yaml:"learning_rate"`
	Discount       float64 `mapstructure:"discount" yaml:"discount"`
	OptimisticInit float64 `mapstructure:"optimistic_init" yaml:"optimistic_init"`
	Seed           int64   `mapstructure:"seed" yaml:"seed"`
}

type ArenaConfig struct {
	Cells            int     `mapstructure:"cells" yaml:"cells"`
	Goal             int     `mapstructure:"goal" yaml:"goal"`
	Starts           []int   `mapstructure:"starts" yaml:"starts"`
	CollisionPenalty float64 `mapstructure:"collision_penalty" yaml:"collision_penalty"`
	GoalReward       float64 `mapstructure:"goal_reward" yaml:"goal_reward"`
	StepPenalty      float64 `mapstructure:"step_penalty" yaml:"step_penalty"`
	MaxSteps         int     `mapstructure:"max_steps" yaml:"max_steps"`
}

type EmotionConfig struct {
	Sensitivity    float64 `mapstructure:"sensitivity" yaml:"sensitivity"`
	DecayPerTick   float64 `mapstructure:"decay_per_tick" yaml:"decay_per_tick"`
	FatigueLoad    float64 `mapstructure:"fatigue_load" yaml:"fatigue_load"`
	DecayPerSecond float64 `mapstructure:"decay_per_second" yaml:"decay_per_second"`
}

type StoreConfig struct {
	Mode        string `mapstructure:"mode" yaml:"mode"`
	SQLitePath  string `mapstructure:"sqlite_path" yaml:"sqlite_path"`
	PostgresDSN string `mapstructure:"postgres_dsn" yaml:"postgres_dsn"`
	// Snapshots kept per NPC after a save; 0 keeps all.
	Keep int `mapstructure:"keep" yaml:"keep"`
}

type ServerConfig struct {
	Addr           string  `mapstructure:"addr" yaml:"addr"`
	TicksPerSecond float64 `mapstructure:"ticks_per_second" yaml:"ticks_per_second"`
}

// Default mirrors the package defaults of matrix, arena and emotion.
func Default() *Config {
	m := matrix.DefaultConfig()
	a := arena.DefaultConfig()
	e := emotion.DefaultConfig()
	return &Config{
		Matrix: MatrixConfig{
			BaseEpsilon:    m.BaseEpsilon,
			LearningRate:   m.LearningRate,
			Discount:       0.9,
			OptimisticInit: m.OptimisticInit,
			Seed:           m.Seed,
		},
		Arena: ArenaConfig{
			Cells:            a.Cells,
			Goal:             a.Goal,
			Starts:           append([]int(nil), a.Starts...),
			CollisionPenalty: a.CollisionPenalty,
			GoalReward:       a.GoalReward,
			StepPenalty:      a.StepPenalty,
			MaxSteps:         a.MaxSteps,
		},
		Emotion: EmotionConfig{
			Sensitivity:    e.Sensitivity,
			DecayPerTick:   e.DecayPerTick,
			FatigueLoad:    e.FatigueLoad,
			DecayPerSecond: e.DecayPerSecond,
		},
		Store: StoreConfig{
			Mode:       StoreModeMemory,
			SQLitePath: "npcbrain.db",
			Keep:       10,
		},
		Server: ServerConfig{
			Addr:           ":8080",
			TicksPerSecond: 4,
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load reads .env (if present), then path (if set), then NPCBRAIN_*
// variables, e.g. NPCBRAIN_STORE_MODE=sqlite.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Store.Mode = normalizeStoreMode(cfg.Store.Mode)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes c as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	if err := c.MatrixConfig().Validate(); err != nil {
		return fmt.Errorf("matrix: %w", err)
	}
	if d := c.Matrix.Discount; math.IsNaN(d) || d < 0 || d > 1 {
		return fmt.Errorf("matrix: discount must be in [0,1], got %v", c.Matrix.Discount)
	}
	if err := c.ArenaConfig().Validate(); err != nil {
		return fmt.Errorf("arena: %w", err)
	}
	if c.Emotion.Sensitivity < 0 || c.Emotion.DecayPerTick < 0 || c.Emotion.DecayPerTick > 1 {
		return fmt.Errorf("emotion: sensitivity must be >= 0 and decay_per_tick in [0,1]")
	}
	switch c.Store.Mode {
	case StoreModeMemory:
	case StoreModeSQLite:
		if strings.TrimSpace(c.Store.SQLitePath) == "" {
			return fmt.Errorf("store: sqlite_path is required in sqlite mode")
		}
	case StoreModePostgres:
		if strings.TrimSpace(c.Store.PostgresDSN) == "" {
			return fmt.Errorf("store: postgres_dsn is required in postgres mode")
		}
	default:
		return fmt.Errorf("store: invalid mode %q (supported: %s, %s, %s)",
			c.Store.Mode, StoreModeMemory, StoreModeSQLite, StoreModePostgres)
	}
	if c.Store.Keep < 0 {
		return fmt.Errorf("store: keep must be >= 0")
	}
	if c.Server.TicksPerSecond < 0 {
		return fmt.Errorf("server: ticks_per_second must be >= 0")
	}
	return nil
}

func (c *Config) MatrixConfig() matrix.Config {
	return matrix.Config{
		BaseEpsilon:    c.Matrix.BaseEpsilon,
		LearningRate:   c.Matrix.LearningRate,
		OptimisticInit: c.Matrix.OptimisticInit,
		Seed:           c.Matrix.Seed,
	}
}

func (c *Config) ArenaConfig() arena.Config {
	return arena.Config{
		Cells:            c.Arena.Cells,
		Goal:             c.Arena.Goal,
		Starts:           append([]int(nil), c.Arena.Starts...),
		CollisionPenalty: c.Arena.CollisionPenalty,
		GoalReward:       c.Arena.GoalReward,
		StepPenalty:      c.Arena.StepPenalty,
		MaxSteps:         c.Arena.MaxSteps,
	}
}

func (c *Config) EmotionConfig() emotion.Config {
	return emotion.Config{
		Sensitivity:    c.Emotion.Sensitivity,
		DecayPerTick:   c.Emotion.DecayPerTick,
		FatigueLoad:    c.Emotion.FatigueLoad,
		DecayPerSecond: c.Emotion.DecayPerSecond,
	}
}

func normalizeStoreMode(raw string) string {
	mode := strings.ToLower(strings.TrimSpace(raw))
	switch mode {
	case "", "mem":
		return StoreModeMemory
	case "postgresql", "pg":
		return StoreModePostgres
	case "sqlite3":
		return StoreModeSQLite
	default:
		return mode
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("matrix.base_epsilon", d.Matrix.BaseEpsilon)
	v.SetDefault("matrix.learning_rate", d.Matrix.LearningRate)
	v.SetDefault("matrix.discount", d.Matrix.Discount)
	v.SetDefault("matrix.optimistic_init", d.Matrix.OptimisticInit)
	v.SetDefault("matrix.seed", d.Matrix.Seed)
	v.SetDefault("arena.cells", d.Arena.Cells)
	v.SetDefault("arena.goal", d.Arena.Goal)
	v.SetDefault("arena.starts", d.Arena.Starts)
	v.SetDefault("arena.collision_penalty", d.Arena.CollisionPenalty)
	v.SetDefault("arena.goal_reward", d.Arena.GoalReward)
	v.SetDefault("arena.step_penalty", d.Arena.StepPenalty)
	v.SetDefault("arena.max_steps", d.Arena.MaxSteps)
	v.SetDefault("emotion.sensitivity", d.Emotion.Sensitivity)
	v.SetDefault("emotion.decay_per_tick", d.Emotion.DecayPerTick)
	v.SetDefault("emotion.fatigue_load", d.Emotion.FatigueLoad)
	v.SetDefault("emotion.decay_per_second", d.Emotion.DecayPerSecond)
	v.SetDefault("store.mode", d.Store.Mode)
	v.SetDefault("store.sqlite_path", d.Store.SQLitePath)
	v.SetDefault("store.postgres_dsn", d.Store.PostgresDSN)
	v.SetDefault("store.keep", d.Store.Keep)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.ticks_per_second", d.Server.TicksPerSecond)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.pretty", d.Logging.Pretty)
	v.SetDefault("personas", d.Personas)
}
