package jobs

import (
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

// Job names registered at startup.
const (
	JobArchiveRefresh = "archive-refresh"
	JobUpdateCheck    = "update-check"
)

// StartJobs starts the background job scheduler.
func StartJobs(app JobContext) {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	scheduleJob(s, app, JobArchiveRefresh, app.Config().Archive.RefreshInterval)
	scheduleJob(s, app, JobUpdateCheck, app.Config().UpdateCheckInterval)

	log.Println("Starting background job scheduler...")
	s.StartAsync()
}

func scheduleJob(s *gocron.Scheduler, app JobContext, jobID string, interval int) {
	if interval == 0 {
		log.Printf("Interval for '%s' is 0, scheduled run is disabled.", jobID)
		return
	}

	log.Printf("Scheduling job: '%s' to run every %d minutes.", jobID, interval)

	_, err := s.Every(interval).Minutes().Do(func() {
		log.Println("Scheduler is triggering job:", jobID)
		// Submit the job to the manager instead of running it directly.
		// This prevents conflicts with manually triggered jobs.
		err := app.JobManager().RunJob(jobID, app)
		if err != nil {
			log.Printf("Scheduled job '%s' could not start: %v", jobID, err)
		}
	})
	if err != nil {
		log.Printf("Error scheduling '%s' job: %v", jobID, err)
	}
}
