package background

import (
	"context"
	"log"
	"sync"
	"time"

	"taxdesk/internal/jobs"
	"taxdesk/internal/services"

	"github.com/go-co-op/gocron/v2"
	"golang.org/x/sync/errgroup"
)

// JobScheduler manages background jobs for the portal
type JobScheduler struct {
	scheduler gocron.Scheduler
	sweeper   *jobs.OrphanSweeper
	directory services.DirectoryService
	jobJobs   map[string]gocron.Job
	mu        sync.RWMutex
}

// NewJobScheduler creates a new job scheduler
func NewJobScheduler(sweeper *jobs.OrphanSweeper, directory services.DirectoryService) *JobScheduler {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}

	js := &JobScheduler{
		scheduler: scheduler,
		sweeper:   sweeper,
		directory: directory,
		jobJobs:   make(map[string]gocron.Job),
	}

	js.registerJobs()

	return js
}

// Start starts the job scheduler
func (js *JobScheduler) Start() error {
	log.Printf("Starting background job scheduler")
	js.scheduler.Start()
	return nil
}

// Stop stops the job scheduler
func (js *JobScheduler) Stop() error {
	log.Printf("Stopping background job scheduler")
	return js.scheduler.Shutdown()
}

// registerJobs registers all background jobs
func (js *JobScheduler) registerJobs() {
	// Orphan binary sweep - every hour
	sweepJob, err := js.scheduler.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(js.sweepOrphans, context.Background()),
		gocron.WithName("orphan-binary-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create orphan sweep job: %v", err)
	} else {
		js.jobJobs["orphan-sweep"] = sweepJob
	}

	// Workload report - every 30 minutes
	statsJob, err := js.scheduler.NewJob(
		gocron.DurationJob(30*time.Minute),
		gocron.NewTask(js.reportWorkload, context.Background()),
		gocron.WithName("workload-report"),
	)
	if err != nil {
		log.Printf("Failed to create workload report job: %v", err)
	} else {
		js.jobJobs["workload-report"] = statsJob
	}

	log.Printf("Registered %d background jobs", len(js.jobJobs))
}

// sweepOrphans reconciles the object store against document metadata
func (js *JobScheduler) sweepOrphans(ctx context.Context) error {
	runCtx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()
	return js.sweeper.Sweep(runCtx)
}

// reportWorkload logs the firm-wide counters and flags clients who have
// uploaded nothing yet, so a stalled tax season shows up in the logs.
func (js *JobScheduler) reportWorkload(ctx context.Context) error {
	runCtx, cancel := context.WithTimeout(ctx, 1*time.Minute)
	defer cancel()

	var (
		stats   *services.DashboardStats
		clients []*services.ClientEntry
	)
	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		var err error
		stats, err = js.directory.DashboardStats(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		clients, err = js.directory.ClientOverview(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		log.Printf("WARN: workload report failed: %v", err)
		return err
	}

	withoutDocs := 0
	for _, c := range clients {
		if c.DocumentCount == 0 {
			withoutDocs++
		}
	}

	log.Printf("Workload: %d clients (%d without documents), %d documents, %d returns (%d in progress)",
		stats.TotalClients, withoutDocs, stats.TotalDocuments, stats.TotalReturns, stats.PendingReturns)
	return nil
}

// AddJob adds a custom job to the scheduler
func (js *JobScheduler) AddJob(name string, interval time.Duration, taskFn interface{}, params ...interface{}) error {
	js.mu.Lock()
	defer js.mu.Unlock()

	job, err := js.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(taskFn, params...),
		gocron.WithName(name),
	)
	if err != nil {
		return err
	}

	js.jobJobs[name] = job
	log.Printf("Added custom job: %s", name)
	return nil
}

// RemoveJob removes a job from the scheduler
func (js *JobScheduler) RemoveJob(name string) error {
	js.mu.Lock()
	defer js.mu.Unlock()

	if job, exists := js.jobJobs[name]; exists {
		err := js.scheduler.RemoveJob(job.ID())
		delete(js.jobJobs, name)
		return err
	}

	return nil
}

// GetJobStatus returns information about scheduled jobs
func (js *JobScheduler) GetJobStatus() map[string]interface{} {
	js.mu.RLock()
	defer js.mu.RUnlock()

	status := make(map[string]interface{})
	status["total_jobs"] = len(js.jobJobs)
	jobNames := make([]string, 0, len(js.jobJobs))

	for name := range js.jobJobs {
		jobNames = append(jobNames, name)
	}

	status["jobs"] = jobNames

	return status
}
