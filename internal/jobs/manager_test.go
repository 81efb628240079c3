package jobs_test

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kvasir-dev/plugvault/internal/config"
	"github.com/kvasir-dev/plugvault/internal/jobs"
	"github.com/kvasir-dev/plugvault/internal/websocket"
)

type fakeJobContext struct {
	db     *sql.DB
	cfg    *config.Config
	ws     *websocket.Hub
	jobMgr *jobs.JobManager
}

func (f *fakeJobContext) DB() *sql.DB                  { return f.db }
func (f *fakeJobContext) Config() *config.Config       { return f.cfg }
func (f *fakeJobContext) WsHub() *websocket.Hub        { return f.ws }
func (f *fakeJobContext) JobManager() *jobs.JobManager { return f.jobMgr }

func waitForStatus(t *testing.T, mgr *jobs.JobManager, name, want string) *jobs.JobStatus {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		for _, s := range mgr.GetStatus() {
			if s.Name == name && s.Status == want {
				return s
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %q never reached status %q", name, want)
	return nil
}

func TestManagerRegisterAndGetStatus(t *testing.T) {
	mgr := jobs.NewManager()
	mgr.Register("archive-refresh", func(ctx jobs.JobContext) {})
	mgr.Register("update-check", func(ctx jobs.JobContext) {})

	statuses := mgr.GetStatus()
	require.Len(t, statuses, 2)
	for _, s := range statuses {
		assert.Equal(t, "idle", s.Status)
	}
}

func TestManagerRunJob(t *testing.T) {
	mgr := jobs.NewManager()
	ctx := &fakeJobContext{cfg: &config.Config{}, jobMgr: mgr}

	ran := make(chan struct{})
	mgr.Register("quick", func(jobs.JobContext) { close(ran) })

	require.NoError(t, mgr.RunJob("quick", ctx))
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("task never ran")
	}
	status := waitForStatus(t, mgr, "quick", "success")
	assert.NotZero(t, status.EndTime)
}

func TestManagerRejectsConcurrentJobs(t *testing.T) {
	mgr := jobs.NewManager()
	ctx := &fakeJobContext{cfg: &config.Config{}, jobMgr: mgr}

	release := make(chan struct{})
	mgr.Register("slow", func(jobs.JobContext) { <-release })
	mgr.Register("other", func(jobs.JobContext) {})

	require.NoError(t, mgr.RunJob("slow", ctx))
	err := mgr.RunJob("other", ctx)
	assert.Error(t, err, "a second job must be refused while one is running")

	close(release)
	waitForStatus(t, mgr, "slow", "success")

	// Once the first job finished, new jobs start again.
	assert.NoError(t, mgr.RunJob("other", ctx))
	waitForStatus(t, mgr, "other", "success")
}

func TestManagerUnknownJob(t *testing.T) {
	mgr := jobs.NewManager()
	ctx := &fakeJobContext{jobMgr: mgr}
	assert.Error(t, mgr.RunJob("nope", ctx))
}

func TestManagerTaskFailure(t *testing.T) {
	mgr := jobs.NewManager()
	ctx := &fakeJobContext{jobMgr: mgr}

	mgr.Register("failing", func(c jobs.JobContext) {
		c.JobManager().Fail("failing", "upstream unavailable")
	})

	require.NoError(t, mgr.RunJob("failing", ctx))
	status := waitForStatus(t, mgr, "failing", "failed")
	assert.Equal(t, "upstream unavailable", status.Message)
}

func TestManagerRecoversFromPanic(t *testing.T) {
	mgr := jobs.NewManager()
	ctx := &fakeJobContext{jobMgr: mgr}

	mgr.Register("panicky", func(jobs.JobContext) { panic("boom") })

	require.NoError(t, mgr.RunJob("panicky", ctx))
	waitForStatus(t, mgr, "panicky", "failed")

	// The manager is not wedged.
	mgr.Register("after", func(jobs.JobContext) {})
	assert.NoError(t, mgr.RunJob("after", ctx))
	waitForStatus(t, mgr, "after", "success")
}
