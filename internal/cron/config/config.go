package cron_config

type Config struct {
	// Heartbeat check, every minute
	CronScheduleHeartbeat string `env:"CRON_SCHEDULE_HEARTBEAT" envDefault:"0 * * * * *"`
	// Dispatcher stats report, every five minutes
	CronScheduleDispatchStats string `env:"CRON_SCHEDULE_DISPATCH_STATS" envDefault:"0 */5 * * * *"`
}
