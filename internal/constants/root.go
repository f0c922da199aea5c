package constants

import "time"

const (
	AppName            = "recur"
	DefaultKeyringUser = "database-connection"
	EnvDBConnection    = "RECUR_DB_CONNECTION"
	EnvPrefix          = "RECUR"
	EnvRedisPassword   = "RECUR_REDIS_PASSWORD"
	DefaultConfigDir   = "~/.config/recur"
	DefaultStorePath   = "~/.config/recur/recur.db"
	DefaultOwner       = "default"
	Version            = "v0.3.0"

	// Store backends
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendJSON     = "json"
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendAzTables = "aztables"

	// Record keys. Expenses and medications share the tracker but never a key.
	KeyObligationsPrefix = "obligations/"
	KeyProcessedPrefix   = "processed/"
	KeyHabits            = "habits"
	KeyAppointments      = "appointments"
	KeyTasks             = "tasks"
	KeyPrayers           = "prayers"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "recur-"
	BackupFileSuffix = ".db"

	// Notify constants
	NotifyMaxRetries       = 3
	NotifyRetryDelay       = 100 * time.Millisecond
	NotifierLockfileName   = "recur-notifier.lock"
	NotificationDurationMs = 5000
	TrayAppIdentifier      = "com.julianstephens.recur"
	TrayProcessName        = "recur-tray"
	TraySecretHeader       = "X-Recur-Secret"
)
