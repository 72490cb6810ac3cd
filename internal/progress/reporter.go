// internal/progress/reporter.go
package progress

import (
	"sync"
	"time"

	"github.com/bstardust/htgen/internal/logger"
)

// Summary is the final tally of a batch
type Summary struct {
	Total     int
	Completed int
	Failed    int
	Duration  time.Duration
}

// Reporter tracks and reports tagging progress
type Reporter struct {
	mu             sync.Mutex
	total          int
	completed      int
	failed         int
	startTime      time.Time
	lastUpdateTime time.Time
	updateInterval time.Duration
}

// New creates a new progress reporter
func New() *Reporter {
	return &Reporter{
		updateInterval: 2 * time.Second,
	}
}

// Start initializes the progress reporter with the total number of images
func (r *Reporter) Start(total int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.total = total
	r.completed = 0
	r.failed = 0
	r.startTime = time.Now()
	r.lastUpdateTime = r.startTime

	logger.Info("Starting tagging of %d images", total)
}

// Complete marks an image as tagged
func (r *Reporter) Complete(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.completed++
	logger.Debug("Tagged %s", path)
	r.updateProgress()
}

// Error marks an image as failed
func (r *Reporter) Error(path string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.failed++
	logger.Warn("Failed to tag %s: %v", path, err)
	r.updateProgress()
}

// Finish logs and returns the final tally
func (r *Reporter) Finish() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Summary{
		Total:     r.total,
		Completed: r.completed,
		Failed:    r.failed,
		Duration:  time.Since(r.startTime),
	}

	logger.Info("Tagging complete: %d/%d images tagged, %d errors in %s",
		s.Completed, s.Total, s.Failed, s.Duration.Round(time.Second))
	return s
}

// updateProgress logs at most once per interval
func (r *Reporter) updateProgress() {
	now := time.Now()
	if now.Sub(r.lastUpdateTime) < r.updateInterval {
		return
	}

	r.lastUpdateTime = now
	processed := r.completed + r.failed
	if processed == 0 || r.total == 0 {
		return
	}

	percentage := float64(processed) / float64(r.total) * 100

	var eta string
	if r.completed > 0 {
		perImage := now.Sub(r.startTime) / time.Duration(processed)
		eta = (perImage * time.Duration(r.total-processed)).Round(time.Second).String()
	} else {
		eta = "unknown"
	}

	logger.Info("Progress: %.1f%% (%d/%d, %d errors) ETA: %s",
		percentage, processed, r.total, r.failed, eta)
}
