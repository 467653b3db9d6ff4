package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bassista/go_pagewatch/internal/logger"
	"github.com/bassista/go_pagewatch/internal/scheduler"
	"github.com/bassista/go_pagewatch/internal/target"
	"github.com/bassista/go_pagewatch/internal/watcher"
)

// CycleSource exposes the watcher state read by the status endpoint.
type CycleSource interface {
	Target() target.Target
	LastResult() (watcher.Result, bool)
}

// ScheduleSource exposes the scheduler state and the manual trigger.
type ScheduleSource interface {
	Trigger() scheduler.TriggerTime
	Location() *time.Location
	NextRun() (time.Time, error)
	State() scheduler.State
	Runs() int64
	Skipped() int64
	RunNow() error
}

type StatusController struct {
	cycles   CycleSource
	schedule ScheduleSource
}

func NewStatusController(cycles CycleSource, schedule ScheduleSource) *StatusController {
	return &StatusController{cycles: cycles, schedule: schedule}
}

type statusResponse struct {
	URL        string          `json:"url"`
	Selector   string          `json:"selector,omitempty"`
	Schedule   string          `json:"schedule"`
	Timezone   string          `json:"timezone"`
	NextRun    *time.Time      `json:"nextRun,omitempty"`
	State      string          `json:"state"`
	Runs       int64           `json:"runs"`
	Skipped    int64           `json:"skipped"`
	LastResult *watcher.Result `json:"lastResult,omitempty"`
}

// Status reports the schedule and the result of the most recent cycle.
func (sc *StatusController) Status(c *gin.Context) {
	t := sc.cycles.Target()
	resp := statusResponse{
		URL:      t.URL,
		Selector: t.Selector,
		Schedule: sc.schedule.Trigger().String(),
		Timezone: sc.schedule.Location().String(),
		State:    sc.schedule.State().String(),
		Runs:     sc.schedule.Runs(),
		Skipped:  sc.schedule.Skipped(),
	}
	if next, err := sc.schedule.NextRun(); err == nil {
		resp.NextRun = &next
	} else {
		logger.WithComponent("status_controller").Debugf("next run unavailable: %v", err)
	}
	if res, ok := sc.cycles.LastResult(); ok {
		resp.LastResult = &res
	}
	c.JSON(http.StatusOK, resp)
}

// Check queues an immediate cycle. The cycle runs asynchronously; poll Status for the result.
func (sc *StatusController) Check(c *gin.Context) {
	if sc.schedule.State() == scheduler.Running {
		c.JSON(http.StatusConflict, gin.H{"error": "a watch cycle is already running"})
		return
	}
	if err := sc.schedule.RunNow(); err != nil {
		logger.WithComponent("status_controller").Errorf("failed to queue check: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to queue check"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "check queued"})
}
