package cron

import (
	"os"

	"github.com/caarlos0/env/v6"
	cronv3 "github.com/robfig/cron/v3"

	cron_config "github.com/openrelay/hookstack/internal/cron/config"
	"github.com/openrelay/hookstack/internal/logger"
	"github.com/openrelay/hookstack/internal/tracing"
	"github.com/openrelay/hookstack/services/dispatcher"
)

type CronManager struct {
	log        logger.Logger
	cron       *cronv3.Cron
	stopCh     chan struct{}
	jobIDs     map[string]cronv3.EntryID
	dispatcher *dispatcher.Dispatcher
}

func NewCronManager(log logger.Logger, d *dispatcher.Dispatcher) *CronManager {
	return &CronManager{
		log:        log,
		stopCh:     make(chan struct{}),
		jobIDs:     make(map[string]cronv3.EntryID),
		dispatcher: d,
	}
}

// StartCron initializes and starts the cron scheduler
func (cm *CronManager) StartCron() {
	cm.log.Info("Starting cron manager")
	// Create a new cron with seconds field enabled and panic recovery
	cronOptions := []cronv3.Option{
		cronv3.WithSeconds(),
		cronv3.WithChain(
			cronv3.SkipIfStillRunning(cronv3.DefaultLogger), // Skip if still running
			cronv3.Recover(cronv3.DefaultLogger),            // Default recovery as backup
		),
	}
	c := cronv3.New(cronOptions...)
	cm.registerJobs(c)
	c.Start()
	cm.cron = c
}

// Stop gracefully stops the cron manager
func (cm *CronManager) Stop() {
	if cm.cron != nil {
		cm.log.Info("Stopping cron manager")
		ctx := cm.cron.Stop()
		// Wait for jobs to finish
		<-ctx.Done()
	}
	close(cm.stopCh)
}

// registerJobs adds all cron jobs to the scheduler
func (cm *CronManager) registerJobs(c *cronv3.Cron) {
	// Load cron config from environment variables
	var cronConfig cron_config.Config
	if err := env.Parse(&cronConfig); err != nil {
		cm.log.Fatalf("Failed to parse cron config from environment: %v", err)
	}

	// Register heartbeat job
	if cronConfig.CronScheduleHeartbeat != "" {
		podName := os.Getenv("POD_NAME")
		if podName == "" {
			podName = "local"
		}
		id, err := c.AddFunc(cronConfig.CronScheduleHeartbeat, func() {
			defer tracing.RecoverAndLogToJaeger(cm.log)
			cm.log.Infof("Cron heartbeat from pod: %s", podName)
		})
		if err != nil {
			cm.log.Fatalf("Could not add heartbeat cron job: %v", err)
		}
		cm.jobIDs["heartbeat"] = id
		cm.log.Infof("Registered heartbeat job with schedule: %s", cronConfig.CronScheduleHeartbeat)
	}

	// Register dispatcher stats job
	if cronConfig.CronScheduleDispatchStats != "" {
		id, err := c.AddFunc(cronConfig.CronScheduleDispatchStats, func() {
			defer tracing.RecoverAndLogToJaeger(cm.log)
			cm.reportDispatchStats()
		})
		if err != nil {
			cm.log.Fatalf("Could not add dispatch stats cron job: %v", err)
		}
		cm.jobIDs["dispatch_stats"] = id
		cm.log.Infof("Registered dispatch stats job with schedule: %s", cronConfig.CronScheduleDispatchStats)
	}
}

func (cm *CronManager) reportDispatchStats() {
	stats := cm.dispatcher.Stats()
	cm.log.Infof("Dispatch stats: processed=%d failed=%d deduped=%d", stats.Processed, stats.Failed, stats.Deduped)
}
