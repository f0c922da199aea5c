package constants

import "time"

const (
	// Config keys, as read by viper (nested keys use dots)
	SettingStoreBackend       = "store.backend"
	SettingStorePath          = "store.path"
	SettingOwner              = "owner"
	SettingTimezone           = "timezone"
	SettingDebug              = "debug"
	SettingNotifySink         = "notify.sink"
	SettingAppointmentLeadMin = "notify.appointment_lead_min"
	SettingTaskLeadMin        = "notify.task_lead_min"
	SettingTaskDefaultTime    = "notify.task_default_time"
	SettingDebounce           = "notify.debounce"
	SettingPollInterval       = "notify.poll_interval"
	SettingDispatchInterval   = "notify.dispatch_interval"
	SettingRedisAddr          = "redis.addr"
	SettingRedisDB            = "redis.db"
	SettingTableServiceURL    = "azure.table_service_url"
	SettingTableName          = "azure.table_name"
	SettingQueueServiceURL    = "azure.queue_service_url"
	SettingQueueName          = "azure.queue_name"

	// Default Settings Values
	DefaultTimezone           = "Local" // Use system local timezone by default
	DefaultNotifySink         = "tray"
	DefaultAppointmentLeadMin = 30
	DefaultTaskLeadMin        = 60
	DefaultTaskTime           = "09:00"
	DefaultDebounce           = 3 * time.Second
	DefaultPollInterval       = 60 * time.Second
	DefaultDispatchInterval   = 15 * time.Second
	DefaultRedisAddr          = "localhost:6379"
	DefaultTableName          = "recurrecords"
	DefaultQueueName          = "recur-plans"
)
