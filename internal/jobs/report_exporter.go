package jobs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"takeint/internal/repositories"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ExporterConfig contains configuration for the report exporter job.
type ExporterConfig struct {
	Schedule      string // cron schedule, e.g. "0 2 * * *" for 2 AM daily
	ExportDir     string
	ExportEnabled bool
	LookbackDays  int // how many days of reports each run covers
}

// ReportExporterJob periodically dumps recent feedback reports to JSONL files
// for offline analysis. Reports are immutable, so each run exports by
// created-at window instead of mutating an exported flag.
type ReportExporterJob struct {
	reports *repositories.FeedbackRepository
	config  *ExporterConfig
	logger  *zap.Logger
	cron    *cron.Cron

	mu      sync.Mutex
	lastRun time.Time
}

func NewReportExporterJob(reports *repositories.FeedbackRepository, config *ExporterConfig, logger *zap.Logger) *ReportExporterJob {
	return &ReportExporterJob{
		reports: reports,
		config:  config,
		logger:  logger,
		cron:    cron.New(),
	}
}

// Start begins the scheduled export job.
func (j *ReportExporterJob) Start() error {
	if !j.config.ExportEnabled {
		j.logger.Info("report export is disabled, skipping scheduler")
		return nil
	}

	_, err := j.cron.AddFunc(j.config.Schedule, func() {
		if err := j.RunExport(); err != nil {
			j.logger.Error("report export failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule export job: %w", err)
	}

	j.cron.Start()
	j.logger.Info("report exporter started", zap.String("schedule", j.config.Schedule))
	return nil
}

// Stop stops the scheduled export job.
func (j *ReportExporterJob) Stop() {
	if j.cron != nil {
		j.cron.Stop()
		j.logger.Info("report exporter stopped")
	}
}

// RunExport performs a single export run.
func (j *ReportExporterJob) RunExport() error {
	lookback := j.config.LookbackDays
	if lookback <= 0 {
		lookback = 1
	}
	since := time.Now().AddDate(0, 0, -lookback)

	reports, err := j.reports.ListReportsSince(since)
	if err != nil {
		return fmt.Errorf("failed to list reports: %w", err)
	}
	if len(reports) == 0 {
		j.logger.Info("no reports to export")
		return nil
	}

	if err := os.MkdirAll(j.config.ExportDir, 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	timestamp := time.Now().Format("20060102_150405")
	path := filepath.Join(j.config.ExportDir, fmt.Sprintf("reports_%s.jsonl", timestamp))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for i := range reports {
		if err := enc.Encode(&reports[i]); err != nil {
			return fmt.Errorf("failed to write export file: %w", err)
		}
	}

	j.mu.Lock()
	j.lastRun = time.Now()
	j.mu.Unlock()

	j.logger.Info("exported reports",
		zap.Int("count", len(reports)),
		zap.String("file", path))
	return nil
}

// LastRun returns when the exporter last completed successfully.
func (j *ReportExporterJob) LastRun() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.lastRun
}
