package postgres

import (
	"database/sql"
	"errors"
	"time"

	"github.com/forgewave/bombard/internal/model"
)

// ErrRunReportNotFound is returned when a run report lookup finds no row.
var ErrRunReportNotFound = errors.New("run report not found")

// RunReportRepository persists the hub's per-job operational record.
type RunReportRepository struct {
	db *sql.DB
}

// NewRunReportRepository returns a RunReportRepository backed by db.
func NewRunReportRepository(db *sql.DB) *RunReportRepository {
	return &RunReportRepository{db: db}
}

// Create inserts a new run report row for a freshly dispatched job.
func (r *RunReportRepository) Create(report *model.RunReport) error {
	query := `
		INSERT INTO run_reports (run_id, node_count, dispatched_at, completed_at, total_stats, stop_requested_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(query,
		report.RunID, report.NodeCount, report.DispatchedAt,
		timeOrNil(report.CompletedAt), report.TotalStats, timeOrNil(report.StopRequestedAt),
	)
	return err
}

// GetByID returns the run report for a given job ID.
func (r *RunReportRepository) GetByID(runID string) (*model.RunReport, error) {
	query := `
		SELECT run_id, node_count, dispatched_at, completed_at, total_stats, stop_requested_at
		FROM run_reports WHERE run_id = $1
	`

	report := &model.RunReport{}
	var completedAt, stopRequestedAt sql.NullTime

	err := r.db.QueryRow(query, runID).Scan(
		&report.RunID, &report.NodeCount, &report.DispatchedAt,
		&completedAt, &report.TotalStats, &stopRequestedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrRunReportNotFound
	}
	if err != nil {
		return nil, err
	}

	if completedAt.Valid {
		report.CompletedAt = &completedAt.Time
	}
	if stopRequestedAt.Valid {
		report.StopRequestedAt = &stopRequestedAt.Time
	}

	return report, nil
}

// GetAll returns every run report, most recently dispatched first.
func (r *RunReportRepository) GetAll() ([]*model.RunReport, error) {
	query := `
		SELECT run_id, node_count, dispatched_at, completed_at, total_stats, stop_requested_at
		FROM run_reports
		ORDER BY dispatched_at DESC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []*model.RunReport
	for rows.Next() {
		report := &model.RunReport{}
		var completedAt, stopRequestedAt sql.NullTime

		if err := rows.Scan(
			&report.RunID, &report.NodeCount, &report.DispatchedAt,
			&completedAt, &report.TotalStats, &stopRequestedAt,
		); err != nil {
			return nil, err
		}

		if completedAt.Valid {
			report.CompletedAt = &completedAt.Time
		}
		if stopRequestedAt.Valid {
			report.StopRequestedAt = &stopRequestedAt.Time
		}

		reports = append(reports, report)
	}

	return reports, rows.Err()
}

// UpdateProgress bumps the running stat total for a job still in flight.
func (r *RunReportRepository) UpdateProgress(runID string, totalStats int64) error {
	query := `UPDATE run_reports SET total_stats = $2 WHERE run_id = $1`
	result, err := r.db.Exec(query, runID, totalStats)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

// MarkCompleted records the completion timestamp and final stat count.
func (r *RunReportRepository) MarkCompleted(runID string, totalStats int64) error {
	query := `UPDATE run_reports SET completed_at = $2, total_stats = $3 WHERE run_id = $1`
	result, err := r.db.Exec(query, runID, time.Now(), totalStats)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

// MarkStopRequested records that a stop was requested for an in-flight job.
func (r *RunReportRepository) MarkStopRequested(runID string) error {
	query := `UPDATE run_reports SET stop_requested_at = $2 WHERE run_id = $1`
	result, err := r.db.Exec(query, runID, time.Now())
	if err != nil {
		return err
	}
	return checkAffected(result)
}

func checkAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrRunReportNotFound
	}
	return nil
}

func timeOrNil(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}
