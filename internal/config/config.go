// Package config loads recur settings from config.yaml in the config
// directory, with RECUR_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/julianstephens/recur/internal/clock"
	"github.com/julianstephens/recur/internal/constants"
	"github.com/julianstephens/recur/internal/planner"
)

const fileName = "config.yaml"

// Config is the resolved configuration
type Config struct {
	Dir      string
	Owner    string
	Timezone string
	Debug    bool

	Store  StoreConfig
	Notify NotifyConfig
	Redis  RedisConfig
	Azure  AzureConfig
}

type StoreConfig struct {
	Backend string
	Path    string
}

type NotifyConfig struct {
	Sink             string
	AppointmentLead  time.Duration
	TaskLead         time.Duration
	TaskDefaultTime  string
	Debounce         time.Duration
	PollInterval     time.Duration
	DispatchInterval time.Duration
}

type RedisConfig struct {
	Addr string
	DB   int
}

type AzureConfig struct {
	TableServiceURL string
	TableName       string
	QueueServiceURL string
	QueueName       string
}

var backends = map[string]bool{
	constants.BackendSQLite:   true,
	constants.BackendPostgres: true,
	constants.BackendJSON:     true,
	constants.BackendMemory:   true,
	constants.BackendRedis:    true,
	constants.BackendAzTables: true,
}

var sinks = map[string]bool{"tray": true, "queue": true, "print": true}

// DefaultDir is ~/.config/recur
func DefaultDir() string {
	return ExpandPath(constants.DefaultConfigDir)
}

// ExpandPath replaces a leading ~ with the user's home directory.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}

func newViper(dir string) *viper.Viper {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault(constants.SettingOwner, constants.DefaultOwner)
	v.SetDefault(constants.SettingTimezone, constants.DefaultTimezone)
	v.SetDefault(constants.SettingDebug, false)
	v.SetDefault(constants.SettingStoreBackend, constants.BackendSQLite)
	v.SetDefault(constants.SettingNotifySink, constants.DefaultNotifySink)
	v.SetDefault(constants.SettingAppointmentLeadMin, constants.DefaultAppointmentLeadMin)
	v.SetDefault(constants.SettingTaskLeadMin, constants.DefaultTaskLeadMin)
	v.SetDefault(constants.SettingTaskDefaultTime, constants.DefaultTaskTime)
	v.SetDefault(constants.SettingDebounce, constants.DefaultDebounce)
	v.SetDefault(constants.SettingPollInterval, constants.DefaultPollInterval)
	v.SetDefault(constants.SettingDispatchInterval, constants.DefaultDispatchInterval)
	v.SetDefault(constants.SettingRedisAddr, constants.DefaultRedisAddr)
	v.SetDefault(constants.SettingRedisDB, 0)
	v.SetDefault(constants.SettingTableName, constants.DefaultTableName)
	v.SetDefault(constants.SettingQueueName, constants.DefaultQueueName)
	return v
}

// Load reads dir/config.yaml if present. A missing file yields defaults.
func Load(dir string) (*Config, error) {
	dir = ExpandPath(dir)
	v := newViper(dir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{
		Dir:      dir,
		Owner:    v.GetString(constants.SettingOwner),
		Timezone: v.GetString(constants.SettingTimezone),
		Debug:    v.GetBool(constants.SettingDebug),
		Store: StoreConfig{
			Backend: strings.ToLower(v.GetString(constants.SettingStoreBackend)),
			Path:    ExpandPath(v.GetString(constants.SettingStorePath)),
		},
		Notify: NotifyConfig{
			Sink:             strings.ToLower(v.GetString(constants.SettingNotifySink)),
			AppointmentLead:  time.Duration(v.GetInt(constants.SettingAppointmentLeadMin)) * time.Minute,
			TaskLead:         time.Duration(v.GetInt(constants.SettingTaskLeadMin)) * time.Minute,
			TaskDefaultTime:  v.GetString(constants.SettingTaskDefaultTime),
			Debounce:         v.GetDuration(constants.SettingDebounce),
			PollInterval:     v.GetDuration(constants.SettingPollInterval),
			DispatchInterval: v.GetDuration(constants.SettingDispatchInterval),
		},
		Redis: RedisConfig{
			Addr: v.GetString(constants.SettingRedisAddr),
			DB:   v.GetInt(constants.SettingRedisDB),
		},
		Azure: AzureConfig{
			TableServiceURL: v.GetString(constants.SettingTableServiceURL),
			TableName:       v.GetString(constants.SettingTableName),
			QueueServiceURL: v.GetString(constants.SettingQueueServiceURL),
			QueueName:       v.GetString(constants.SettingQueueName),
		},
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = defaultStorePath(dir, cfg.Store.Backend)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultStorePath(dir, backend string) string {
	switch backend {
	case constants.BackendSQLite:
		return filepath.Join(dir, constants.AppName+".db")
	case constants.BackendJSON:
		return filepath.Join(dir, constants.AppName+".json")
	}
	return ""
}

// Validate checks the settings that would otherwise fail late.
func (c *Config) Validate() error {
	if !backends[c.Store.Backend] {
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if !sinks[c.Notify.Sink] {
		return fmt.Errorf("unknown notify sink %q", c.Notify.Sink)
	}
	if c.Owner == "" {
		return errors.New("owner cannot be empty")
	}
	if _, err := clock.LoadLocation(c.Timezone); err != nil {
		return err
	}
	if _, err := time.Parse(constants.TimeFormat, c.Notify.TaskDefaultTime); err != nil {
		return fmt.Errorf("invalid task default time %q: expected HH:MM", c.Notify.TaskDefaultTime)
	}
	if c.Notify.AppointmentLead < 0 || c.Notify.TaskLead < 0 {
		return errors.New("notification lead times cannot be negative")
	}
	if c.Notify.PollInterval <= 0 || c.Notify.DispatchInterval <= 0 {
		return errors.New("poll and dispatch intervals must be positive")
	}
	if c.Store.Backend == constants.BackendAzTables && c.Azure.TableServiceURL == "" {
		return errors.New("aztables backend requires azure.table_service_url")
	}
	if c.Notify.Sink == "queue" && c.Azure.QueueServiceURL == "" {
		return errors.New("queue sink requires azure.queue_service_url")
	}
	return nil
}

// PlannerOptions maps the notify settings onto planner options.
func (c *Config) PlannerOptions() planner.Options {
	opts := planner.DefaultOptions()
	opts.AppointmentLead = c.Notify.AppointmentLead
	opts.TaskLead = c.Notify.TaskLead
	opts.TaskDefaultTime = c.Notify.TaskDefaultTime
	return opts
}

// Path is the location of the config file
func (c *Config) Path() string {
	return filepath.Join(c.Dir, fileName)
}

// WriteDefault writes a config.yaml with default values unless one exists.
// It reports whether a file was written.
func WriteDefault(dir string) (bool, error) {
	dir = ExpandPath(dir)
	path := filepath.Join(dir, fileName)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.Set(constants.SettingOwner, constants.DefaultOwner)
	v.Set(constants.SettingTimezone, constants.DefaultTimezone)
	v.Set(constants.SettingStoreBackend, constants.BackendSQLite)
	v.Set(constants.SettingStorePath, filepath.Join(dir, constants.AppName+".db"))
	v.Set(constants.SettingNotifySink, constants.DefaultNotifySink)
	v.Set(constants.SettingAppointmentLeadMin, constants.DefaultAppointmentLeadMin)
	v.Set(constants.SettingTaskLeadMin, constants.DefaultTaskLeadMin)
	v.Set(constants.SettingTaskDefaultTime, constants.DefaultTaskTime)
	if err := v.WriteConfigAs(path); err != nil {
		return false, fmt.Errorf("failed to write config: %w", err)
	}
	return true, nil
}
