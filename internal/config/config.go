// Package config provides Viper-based configuration loading for udderworld.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	// HealthTimeout bounds the startup health check.
	HealthTimeout time.Duration `mapstructure:"health_timeout"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
	// Outputs lists zap sink URLs or file paths. Empty means stderr.
	Outputs []string `mapstructure:"outputs"`
}

// RectConfig is an axis-aligned rectangle in field pixels.
type RectConfig struct {
	X float64 `mapstructure:"x"`
	Y float64 `mapstructure:"y"`
	W float64 `mapstructure:"w"`
	H float64 `mapstructure:"h"`
}

// BattleConfig holds every battle tunable. Durations are Go duration strings
// in YAML and environment overrides.
type BattleConfig struct {
	// TileSize is the pathfinding tile edge in pixels.
	TileSize int `mapstructure:"tile_size"`
	// BattleBox is used when a room does not declare its own battle box.
	BattleBox RectConfig `mapstructure:"battle_box"`
	// DodgeMargin inflates the battle box into the region the cursor may roam.
	DodgeMargin float64 `mapstructure:"dodge_margin"`
	CursorSize  float64 `mapstructure:"cursor_size"`
	CursorSpeed float64 `mapstructure:"cursor_speed"`

	ProjectileSize     float64       `mapstructure:"projectile_size"`
	ProjectileLifetime time.Duration `mapstructure:"projectile_lifetime"`
	SpreadMin          int           `mapstructure:"spread_min"`
	SpreadMax          int           `mapstructure:"spread_max"`
	SpreadSpeedMin     float64       `mapstructure:"spread_speed_min"`
	SpreadSpeedMax     float64       `mapstructure:"spread_speed_max"`
	TargetedSpeed      float64       `mapstructure:"targeted_speed"`
	// TargetedOffsets are candidate spawn columns relative to the player column,
	// tried in order.
	TargetedOffsets []int `mapstructure:"targeted_offsets"`

	WaveInterval  time.Duration `mapstructure:"wave_interval"`
	DodgeDuration time.Duration `mapstructure:"dodge_duration"`

	PlayerMaxHP int `mapstructure:"player_max_hp"`
	EnemyMaxHP  int `mapstructure:"enemy_max_hp"`
	HitDamage   int `mapstructure:"hit_damage"`
	ItemDamage  int `mapstructure:"item_damage"`

	MessageDuration time.Duration `mapstructure:"message_duration"`
	MercyDuration   time.Duration `mapstructure:"mercy_duration"`

	// ScriptInstructionLimit caps Lua opcodes per hook call. 0 uses the scripting default.
	ScriptInstructionLimit int `mapstructure:"script_instruction_limit"`
}

// ContentConfig locates room geometry and battle scripts on disk.
type ContentConfig struct {
	RoomsDir   string `mapstructure:"rooms_dir"`
	ScriptsDir string `mapstructure:"scripts_dir"`
	// Watch enables hot reload of rooms and scripts.
	Watch bool `mapstructure:"watch"`
}

// ClientConfig holds settings for the interactive client and the simulator.
type ClientConfig struct {
	WindowWidth  int    `mapstructure:"window_width"`
	WindowHeight int    `mapstructure:"window_height"`
	TPS          int    `mapstructure:"tps"`
	StartRoom    string `mapstructure:"start_room"`
	// Persist enables saving level and checkpoint to PostgreSQL on victory.
	Persist  bool   `mapstructure:"persist"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Battle   BattleConfig   `mapstructure:"battle"`
	Content  ContentConfig  `mapstructure:"content"`
	Client   ClientConfig   `mapstructure:"client"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if c.Client.Persist {
		if err := validateDatabase(c.Database); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateBattle(c.Battle); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateContent(c.Content); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateClient(c.Client); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if d.HealthTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("database.health_timeout must be > 0, got %s", d.HealthTimeout))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateBattle(b BattleConfig) error {
	var errs []string
	if b.TileSize < 1 {
		errs = append(errs, fmt.Sprintf("battle.tile_size must be >= 1, got %d", b.TileSize))
	}
	if b.BattleBox.W <= 0 || b.BattleBox.H <= 0 {
		errs = append(errs, "battle.battle_box must have positive width and height")
	}
	if b.DodgeMargin < 0 {
		errs = append(errs, "battle.dodge_margin must not be negative")
	}
	if b.CursorSize <= 0 {
		errs = append(errs, "battle.cursor_size must be positive")
	}
	if b.CursorSpeed <= 0 {
		errs = append(errs, "battle.cursor_speed must be positive")
	}
	if b.ProjectileSize <= 0 {
		errs = append(errs, "battle.projectile_size must be positive")
	}
	if b.ProjectileLifetime <= 0 {
		errs = append(errs, "battle.projectile_lifetime must be positive")
	}
	if b.SpreadMin < 1 || b.SpreadMax < b.SpreadMin {
		errs = append(errs, fmt.Sprintf("battle.spread_min must be >= 1 and <= spread_max, got %d..%d", b.SpreadMin, b.SpreadMax))
	}
	if b.SpreadSpeedMin <= 0 || b.SpreadSpeedMax < b.SpreadSpeedMin {
		errs = append(errs, fmt.Sprintf("battle.spread_speed_min must be > 0 and <= spread_speed_max, got %g..%g", b.SpreadSpeedMin, b.SpreadSpeedMax))
	}
	if b.TargetedSpeed <= 0 {
		errs = append(errs, "battle.targeted_speed must be positive")
	}
	if len(b.TargetedOffsets) == 0 {
		errs = append(errs, "battle.targeted_offsets must not be empty")
	}
	if b.WaveInterval <= 0 {
		errs = append(errs, "battle.wave_interval must be positive")
	}
	if b.DodgeDuration <= 0 {
		errs = append(errs, "battle.dodge_duration must be positive")
	}
	if b.PlayerMaxHP < 1 || b.EnemyMaxHP < 1 {
		errs = append(errs, "battle.player_max_hp and battle.enemy_max_hp must be >= 1")
	}
	if b.HitDamage < 0 || b.ItemDamage < 0 {
		errs = append(errs, "battle.hit_damage and battle.item_damage must not be negative")
	}
	if b.MessageDuration < 0 || b.MercyDuration < 0 {
		errs = append(errs, "battle.message_duration and battle.mercy_duration must not be negative")
	}
	if b.ScriptInstructionLimit < 0 {
		errs = append(errs, "battle.script_instruction_limit must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateContent(c ContentConfig) error {
	if c.RoomsDir == "" {
		return fmt.Errorf("content.rooms_dir must not be empty")
	}
	return nil
}

func validateClient(c ClientConfig) error {
	var errs []string
	if c.WindowWidth < 1 || c.WindowHeight < 1 {
		errs = append(errs, fmt.Sprintf("client window must be positive, got %dx%d", c.WindowWidth, c.WindowHeight))
	}
	if c.TPS < 1 {
		errs = append(errs, fmt.Sprintf("client.tps must be >= 1, got %d", c.TPS))
	}
	if c.StartRoom == "" {
		errs = append(errs, "client.start_room must not be empty")
	}
	if c.Persist && c.Username == "" {
		errs = append(errs, "client.username must be set when client.persist is enabled")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with UDDER_ prefix
	v.SetEnvPrefix("UDDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Defaults returns a Viper instance holding only the built-in defaults.
//
// Postcondition: LoadFromViper(Defaults()) succeeds.
func Defaults() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "udder")
	v.SetDefault("database.password", "udder")
	v.SetDefault("database.name", "udderworld")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 4)
	v.SetDefault("database.min_conns", 1)
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.health_timeout", "5s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("battle.tile_size", 40)
	v.SetDefault("battle.battle_box.x", 450)
	v.SetDefault("battle.battle_box.y", 300)
	v.SetDefault("battle.battle_box.w", 400)
	v.SetDefault("battle.battle_box.h", 250)
	v.SetDefault("battle.dodge_margin", 20)
	v.SetDefault("battle.cursor_size", 24)
	v.SetDefault("battle.cursor_speed", 3)
	v.SetDefault("battle.projectile_size", 12)
	v.SetDefault("battle.projectile_lifetime", "3s")
	v.SetDefault("battle.spread_min", 3)
	v.SetDefault("battle.spread_max", 5)
	v.SetDefault("battle.spread_speed_min", 2)
	v.SetDefault("battle.spread_speed_max", 5)
	v.SetDefault("battle.targeted_speed", 3)
	v.SetDefault("battle.targeted_offsets", []int{0, -1, 1, -2, 2})
	v.SetDefault("battle.wave_interval", "800ms")
	v.SetDefault("battle.dodge_duration", "10s")
	v.SetDefault("battle.player_max_hp", 20)
	v.SetDefault("battle.enemy_max_hp", 30)
	v.SetDefault("battle.hit_damage", 3)
	v.SetDefault("battle.item_damage", 10)
	v.SetDefault("battle.message_duration", "1500ms")
	v.SetDefault("battle.mercy_duration", "1500ms")
	v.SetDefault("battle.script_instruction_limit", 0)

	v.SetDefault("content.rooms_dir", "content/rooms")
	v.SetDefault("content.scripts_dir", "content/scripts")
	v.SetDefault("content.watch", false)

	v.SetDefault("client.window_width", 1300)
	v.SetDefault("client.window_height", 720)
	v.SetDefault("client.tps", 60)
	v.SetDefault("client.start_room", "room1")
	v.SetDefault("client.persist", false)
}
