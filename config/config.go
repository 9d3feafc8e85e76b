package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Monitor  MonitorConfig  `mapstructure:"monitor"`
	Database DatabaseConfig `mapstructure:"database"`
	Game     GameConfig     `mapstructure:"game"`
}

type ServerConfig struct {
	HTTPAddress       string        `mapstructure:"http_address"`
	RPCAddress        string        `mapstructure:"rpc_address"`
	Codec             string        `mapstructure:"codec"`
	ReadLimit         int64         `mapstructure:"read_limit"`
	SendBuffer        int           `mapstructure:"send_buffer"`
	MessagesPerSecond float64       `mapstructure:"messages_per_second"`
	MessageBurst      int           `mapstructure:"message_burst"`
	PingInterval      time.Duration `mapstructure:"ping_interval"`
	LoopResolution    time.Duration `mapstructure:"loop_resolution"`
	AllowedOrigins    []string      `mapstructure:"allowed_origins"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type MonitorConfig struct {
	Namespace string `mapstructure:"namespace"`
}

type DatabaseConfig struct {
	// Driver is one of "none", "gorm", "postgres" or "sqlite".
	Driver       string         `mapstructure:"driver"`
	RecordBuffer int            `mapstructure:"record_buffer"`
	Postgres     PostgresConfig `mapstructure:"postgres"`
	SQLite       SQLiteConfig   `mapstructure:"sqlite"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// GameConfig holds every gameplay constant of a round.
type GameConfig struct {
	MaxPlayers int `mapstructure:"max_players"`
	MinPlayers int `mapstructure:"min_players"`
	CodeLength int `mapstructure:"code_length"`

	WorldWidth          float64 `mapstructure:"world_width"`
	WorldHeight         float64 `mapstructure:"world_height"`
	InitialCollectibles int     `mapstructure:"initial_collectibles"`
	InitialObstacles    int     `mapstructure:"initial_obstacles"`
	CollectibleTypes    int     `mapstructure:"collectible_types"`
	PlayerRadius        float64 `mapstructure:"player_radius"`
	CollectibleRadius   float64 `mapstructure:"collectible_radius"`
	CollectSlack        float64 `mapstructure:"collect_slack"`
	PushStep            float64 `mapstructure:"push_step"`
	SpawnRadius         float64 `mapstructure:"spawn_radius"`

	MaxHealth     int `mapstructure:"max_health"`
	DamageAmount  int `mapstructure:"damage_amount"`
	SurvivorCount int `mapstructure:"survivor_count"`

	InitialRadiusRatio float64 `mapstructure:"initial_radius_ratio"`
	NextRadiusRatio    float64 `mapstructure:"next_radius_ratio"`
	ShrinkFactor       float64 `mapstructure:"shrink_factor"`
	MinRadius          float64 `mapstructure:"min_radius"`

	Countdown      time.Duration `mapstructure:"countdown"`
	ShrinkInterval time.Duration `mapstructure:"shrink_interval"`
	DamageInterval time.Duration `mapstructure:"damage_interval"`
	TickInterval   time.Duration `mapstructure:"tick_interval"`
	RespawnDelay   time.Duration `mapstructure:"respawn_delay"`
	ForceEndDelay  time.Duration `mapstructure:"force_end_delay"`
	RoundDuration  time.Duration `mapstructure:"round_duration"`
	Cooldown       time.Duration `mapstructure:"cooldown"`
}

// DefaultGameConfig returns the tuning the game shipped with.
func DefaultGameConfig() GameConfig {
	return GameConfig{
		MaxPlayers: 5,
		MinPlayers: 2,
		CodeLength: 5,

		WorldWidth:          2000,
		WorldHeight:         2000,
		InitialCollectibles: 30,
		InitialObstacles:    15,
		CollectibleTypes:    3,
		PlayerRadius:        25,
		CollectibleRadius:   15,
		CollectSlack:        10,
		PushStep:            5,
		SpawnRadius:         200,

		MaxHealth:     100,
		DamageAmount:  25,
		SurvivorCount: 3,

		InitialRadiusRatio: 0.5,
		NextRadiusRatio:    0.4,
		ShrinkFactor:       0.7,
		MinRadius:          150,

		Countdown:      3 * time.Second,
		ShrinkInterval: 20 * time.Second,
		DamageInterval: 3 * time.Second,
		TickInterval:   time.Second,
		RespawnDelay:   3 * time.Second,
		ForceEndDelay:  30 * time.Second,
		RoundDuration:  3 * time.Minute,
		Cooldown:       10 * time.Second,
	}
}

// Validate reports the first inconsistent setting.
func (g GameConfig) Validate() error {
	switch {
	case g.MinPlayers < 1:
		return errors.New("game.min_players must be at least 1")
	case g.MaxPlayers < g.MinPlayers:
		return fmt.Errorf("game.max_players (%d) is below game.min_players (%d)", g.MaxPlayers, g.MinPlayers)
	case g.CodeLength < 4:
		return errors.New("game.code_length must be at least 4")
	case g.WorldWidth <= 0 || g.WorldHeight <= 0:
		return errors.New("game world size must be positive")
	case g.MaxHealth <= 0 || g.DamageAmount <= 0:
		return errors.New("game.max_health and game.damage_amount must be positive")
	case g.SurvivorCount < 1:
		return errors.New("game.survivor_count must be at least 1")
	case g.ShrinkFactor <= 0 || g.ShrinkFactor >= 1:
		return errors.New("game.shrink_factor must be in (0, 1)")
	case g.ShrinkInterval <= 0 || g.DamageInterval <= 0 || g.TickInterval <= 0:
		return errors.New("game task intervals must be positive")
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.Server.Codec {
	case "json", "msgpack":
	default:
		return fmt.Errorf("server.codec %q is not supported", c.Server.Codec)
	}
	switch c.Database.Driver {
	case "none", "gorm", "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver %q is not supported", c.Database.Driver)
	}
	return c.Game.Validate()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_address", ":8080")
	v.SetDefault("server.rpc_address", "127.0.0.1:8081")
	v.SetDefault("server.codec", "json")
	v.SetDefault("server.read_limit", 4096)
	v.SetDefault("server.send_buffer", 256)
	v.SetDefault("server.messages_per_second", 50)
	v.SetDefault("server.message_burst", 100)
	v.SetDefault("server.ping_interval", "30s")
	v.SetDefault("server.loop_resolution", "20ms")
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("log.level", "info")
	v.SetDefault("monitor.namespace", "flowerzone")

	v.SetDefault("database.driver", "none")
	v.SetDefault("database.record_buffer", 64)
	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.user", "postgres")
	v.SetDefault("database.postgres.dbname", "flowerzone")
	v.SetDefault("database.sqlite.path", "flowerzone.db")

	g := DefaultGameConfig()
	v.SetDefault("game.max_players", g.MaxPlayers)
	v.SetDefault("game.min_players", g.MinPlayers)
	v.SetDefault("game.code_length", g.CodeLength)
	v.SetDefault("game.world_width", g.WorldWidth)
	v.SetDefault("game.world_height", g.WorldHeight)
	v.SetDefault("game.initial_collectibles", g.InitialCollectibles)
	v.SetDefault("game.initial_obstacles", g.InitialObstacles)
	v.SetDefault("game.collectible_types", g.CollectibleTypes)
	v.SetDefault("game.player_radius", g.PlayerRadius)
	v.SetDefault("game.collectible_radius", g.CollectibleRadius)
	v.SetDefault("game.collect_slack", g.CollectSlack)
	v.SetDefault("game.push_step", g.PushStep)
	v.SetDefault("game.spawn_radius", g.SpawnRadius)
	v.SetDefault("game.max_health", g.MaxHealth)
	v.SetDefault("game.damage_amount", g.DamageAmount)
	v.SetDefault("game.survivor_count", g.SurvivorCount)
	v.SetDefault("game.initial_radius_ratio", g.InitialRadiusRatio)
	v.SetDefault("game.next_radius_ratio", g.NextRadiusRatio)
	v.SetDefault("game.shrink_factor", g.ShrinkFactor)
	v.SetDefault("game.min_radius", g.MinRadius)
	v.SetDefault("game.countdown", g.Countdown)
	v.SetDefault("game.shrink_interval", g.ShrinkInterval)
	v.SetDefault("game.damage_interval", g.DamageInterval)
	v.SetDefault("game.tick_interval", g.TickInterval)
	v.SetDefault("game.respawn_delay", g.RespawnDelay)
	v.SetDefault("game.force_end_delay", g.ForceEndDelay)
	v.SetDefault("game.round_duration", g.RoundDuration)
	v.SetDefault("game.cooldown", g.Cooldown)
}

// LoadConfig reads config.yaml from path if present, then applies
// FLOWERZONE_* environment overrides on top of the defaults.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("flowerzone")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
