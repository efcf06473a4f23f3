package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/thoreinstein/drupaldbg/internal/backup"
	"github.com/thoreinstein/drupaldbg/internal/drupal"
	"github.com/thoreinstein/drupaldbg/internal/drush"
	"github.com/thoreinstein/drupaldbg/internal/errors"
	"github.com/thoreinstein/drupaldbg/internal/paths"
)

// EnvPrefix is the prefix of environment variables read by Viper.
const EnvPrefix = "DRUPALDBG"

// ConfigDirEnv overrides the directory searched for config.yaml.
const ConfigDirEnv = paths.ConfigDirEnv

// Defaults. Site layout and merge defaults come from the drupal package so
// both stay in step.
const (
	DefaultVersion           = 1
	DefaultSiteDir           = drupal.DefaultSiteDir
	DefaultMergePolicy       = string(drupal.DefaultMergePolicy)
	DefaultCacheClearCommand = drush.DefaultCommand
	DefaultBackupRetention   = backup.DefaultRetentionCount
)

// DefaultExcludeDirs are the directory names skipped while searching for sites.
var DefaultExcludeDirs = slices.Clone(drupal.DefaultExcludeDirs)

// Config represents the top-level configuration structure.
type Config struct {
	Version           int      `mapstructure:"version" yaml:"version" validate:"eq=1"`
	DefaultSiteDir    string   `mapstructure:"default_site_dir" yaml:"default_site_dir" validate:"required"`
	ExcludeDirs       []string `mapstructure:"exclude_dirs" yaml:"exclude_dirs" validate:"dive,required,excludesall=/"`
	MergePolicy       string   `mapstructure:"merge_policy" yaml:"merge_policy" validate:"oneof=existing fragment"`
	CacheClearCommand string   `mapstructure:"cache_clear_command" yaml:"cache_clear_command" validate:"required"`
	Backup            Backup   `mapstructure:"backup" yaml:"backup"`
}

// Backup configures snapshots of override files taken before they change.
type Backup struct {
	Enabled   bool   `mapstructure:"enabled" yaml:"enabled"`
	Retention int    `mapstructure:"retention" yaml:"retention" validate:"min=0,max=1000"`
	Dir       string `mapstructure:"dir" yaml:"dir"`
}

// Default returns the configuration used when no file or environment
// override is present.
func Default() *Config {
	return &Config{
		Version:           DefaultVersion,
		DefaultSiteDir:    DefaultSiteDir,
		ExcludeDirs:       slices.Clone(DefaultExcludeDirs),
		MergePolicy:       DefaultMergePolicy,
		CacheClearCommand: DefaultCacheClearCommand,
		Backup: Backup{
			Enabled:   true,
			Retention: DefaultBackupRetention,
			Dir:       paths.BackupDir(),
		},
	}
}

// Init resets Viper and registers defaults, search paths and environment
// bindings. Call it once at startup before Load.
func Init() {
	viper.Reset()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.AddConfigPath(".")
	viper.AddConfigPath(paths.ConfigDir())

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("version", DefaultVersion)
	viper.SetDefault("default_site_dir", DefaultSiteDir)
	viper.SetDefault("exclude_dirs", DefaultExcludeDirs)
	viper.SetDefault("merge_policy", DefaultMergePolicy)
	viper.SetDefault("cache_clear_command", DefaultCacheClearCommand)
	viper.SetDefault("backup.enabled", true)
	viper.SetDefault("backup.retention", DefaultBackupRetention)
	viper.SetDefault("backup.dir", paths.BackupDir())
}

// LoadDotEnv reads dir/.env into the process environment. Variables that
// are already set keep their value. A missing file is not an error.
func LoadDotEnv(dir string) error {
	file := filepath.Join(dir, ".env")
	if _, err := os.Stat(file); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(file); err != nil {
		return errors.Wrapf(err, "loading %s", file)
	}
	return nil
}

// Load reads the configuration file.
// If path is provided, it reads from that specific file and a missing file
// is an error. If path is empty, it searches the default locations and
// falls back to defaults when nothing is found.
func Load(path string) (*Config, error) {
	if path != "" {
		viper.SetConfigFile(path)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound) && path == "":
			// Implicit search: defaults apply.
		case errors.As(err, &notFound), errors.Is(err, os.ErrNotExist):
			return nil, errors.Mark(errors.Wrapf(err, "config file not found at %s", path), errors.ErrNotFound)
		default:
			return nil, errors.Mark(errors.Wrap(err, "reading config file"), errors.ErrInvalidConfig)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "unmarshaling config"), errors.ErrInvalidConfig)
	}

	cfg.Backup.Dir = paths.ExpandHome(cfg.Backup.Dir)
	cfg.DefaultSiteDir = paths.ExpandHome(cfg.DefaultSiteDir)

	if err := Validate(&cfg); err != nil {
		return nil, errors.Wrap(err, "validating config")
	}

	return &cfg, nil
}

// FileUsed returns the config file Viper read, or "" when defaults apply.
func FileUsed() string {
	return viper.ConfigFileUsed()
}
