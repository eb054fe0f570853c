package chart

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/m3rciful/routeweather/core/logger"
)

// Janitor periodically deletes chart files that outlived their delivery,
// e.g. after a failed upload.
type Janitor struct {
	dir       string
	maxAge    time.Duration
	every     time.Duration
	scheduler *gocron.Scheduler
	now       func() time.Time
}

// NewJanitor sweeps dir every interval, removing PNG files older than maxAge.
func NewJanitor(dir string, maxAge, every time.Duration) *Janitor {
	if maxAge <= 0 {
		maxAge = 30 * time.Minute
	}
	if every <= 0 {
		every = 10 * time.Minute
	}
	return &Janitor{
		dir:       dir,
		maxAge:    maxAge,
		every:     every,
		scheduler: gocron.NewScheduler(time.UTC),
		now:       time.Now,
	}
}

// Start schedules the sweep and runs the scheduler in the background.
func (j *Janitor) Start() error {
	minutes := int(j.every.Minutes())
	if minutes <= 0 {
		minutes = 1
	}
	_, err := j.scheduler.Every(minutes).Minutes().Do(func() {
		removed, err := j.Sweep()
		if err != nil {
			logger.Warn(context.Background(), "chart", "sweep.fail", slog.String("err", err.Error()))
			return
		}
		if removed > 0 {
			logger.Info(context.Background(), "chart", "sweep.done", slog.Int("count", removed))
		}
	})
	if err != nil {
		return err
	}
	j.scheduler.StartAsync()
	return nil
}

// Stop cancels future sweeps.
func (j *Janitor) Stop() {
	if j.scheduler != nil {
		j.scheduler.Stop()
	}
}

// Sweep removes expired chart files once and reports how many were deleted.
func (j *Janitor) Sweep() (int, error) {
	entries, err := os.ReadDir(j.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	cutoff := j.now().Add(-j.maxAge)
	removed := 0
	var errs []error
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileSuffix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(j.dir, e.Name())); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}
