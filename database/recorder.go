package database

import (
	"context"
	"encoding/json"
	"fmt"

	"studio-site-backend/migrations"
	"studio-site-backend/models"

	"gorm.io/gorm"
)

// RunRecorder stores migration summaries in the migration_runs table.
type RunRecorder struct {
	db *gorm.DB
}

func NewRunRecorder(db *gorm.DB) *RunRecorder {
	return &RunRecorder{db: db}
}

type stepDetail struct {
	Step    string `json:"step"`
	Outcome string `json:"outcome"`
	Reason  string `json:"reason,omitempty"`
}

func (r *RunRecorder) Record(ctx context.Context, summary migrations.Summary) error {
	run, err := NewMigrationRun(summary)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(&run).Error; err != nil {
		return fmt.Errorf("failed to record migration run: %w", err)
	}
	return nil
}

// NewMigrationRun flattens a summary into its stored form.
func NewMigrationRun(summary migrations.Summary) (models.MigrationRun, error) {
	details := make([]stepDetail, 0, len(summary.Results))
	for _, res := range summary.Results {
		details = append(details, stepDetail{
			Step:    res.Step,
			Outcome: string(res.Outcome),
			Reason:  res.Reason(),
		})
	}
	detail, err := json.Marshal(details)
	if err != nil {
		return models.MigrationRun{}, fmt.Errorf("failed to encode migration detail: %w", err)
	}

	counts := summary.Counts()
	return models.MigrationRun{
		Migration:      summary.Migration,
		Direction:      string(summary.Direction),
		Applied:        counts[migrations.OutcomeApplied],
		AlreadyApplied: counts[migrations.OutcomeAlreadyApplied],
		Failed:         counts[migrations.OutcomeFailed],
		Detail:         string(detail),
		DurationMs:     summary.Duration.Milliseconds(),
		StartedAt:      summary.StartedAt,
	}, nil
}

// LatestRuns returns up to limit recorded runs, newest first.
func LatestRuns(ctx context.Context, db *gorm.DB, limit int) ([]models.MigrationRun, error) {
	var runs []models.MigrationRun
	err := db.WithContext(ctx).Order("started_at DESC").Order("id DESC").Limit(limit).Find(&runs).Error
	return runs, err
}
