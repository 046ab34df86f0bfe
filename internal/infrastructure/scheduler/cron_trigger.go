package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// CronTriggerConfig holds configuration for the cron trigger
type CronTriggerConfig struct {
	// Hour and Minute are the daily run time in 24h format
	Hour   int
	Minute int

	// Lookback is how far back each audit run looks
	Lookback time.Duration

	// CheckInterval is how often to check if it's time to run
	CheckInterval time.Duration
}

// DefaultCronTriggerConfig returns default cron trigger configuration
func DefaultCronTriggerConfig() CronTriggerConfig {
	return CronTriggerConfig{
		Hour:          2,
		Minute:        0,
		Lookback:      48 * time.Hour,
		CheckInterval: time.Minute,
	}
}

// CronTrigger submits the till audit job once a day
type CronTrigger struct {
	config     CronTriggerConfig
	scheduler  *Scheduler
	maxRetries int
	logger     *zap.Logger
	now        func() time.Time

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	lastRunDate string
}

// NewCronTrigger creates a new cron trigger
func NewCronTrigger(config CronTriggerConfig, scheduler *Scheduler, logger *zap.Logger) *CronTrigger {
	if config.CheckInterval <= 0 {
		config.CheckInterval = time.Minute
	}
	if config.Lookback <= 0 {
		config.Lookback = DefaultCronTriggerConfig().Lookback
	}
	return &CronTrigger{
		config:     config,
		scheduler:  scheduler,
		maxRetries: scheduler.config.RetryAttempts,
		logger:     logger,
		now:        time.Now,
	}
}

// Start starts the cron trigger
func (c *CronTrigger) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = true
	c.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go c.runLoop(ctx)

	c.logger.Info("Cron trigger started",
		zap.Int("daily_hour", c.config.Hour),
		zap.Int("daily_minute", c.config.Minute),
		zap.Duration("lookback", c.config.Lookback),
	)
	return nil
}

// Stop stops the cron trigger
func (c *CronTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("Cron trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *CronTrigger) runLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.checkAndTrigger()
		}
	}
}

// checkAndTrigger submits the audit job when the daily time is reached.
// It returns true when a job was submitted.
func (c *CronTrigger) checkAndTrigger() bool {
	now := c.now()
	currentDate := now.Format("2006-01-02")

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastRunDate == currentDate {
		return false
	}
	if now.Hour() != c.config.Hour || now.Minute() != c.config.Minute {
		return false
	}
	c.lastRunDate = currentDate

	c.logger.Info("Triggering till audit")
	if err := c.TriggerNow(now); err != nil {
		c.logger.Error("Failed to submit till audit", zap.Error(err))
		return false
	}
	return true
}

// TriggerNow submits an audit covering the lookback window ending at now
func (c *CronTrigger) TriggerNow(now time.Time) error {
	job := NewJob(JobTypeTillAudit, now.Add(-c.config.Lookback), c.maxRetries)
	return c.scheduler.SubmitJob(job)
}
