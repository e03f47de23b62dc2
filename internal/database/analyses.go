package database

import (
	"ats-analyzer/internal/models"
	"context"
	"encoding/json"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/errgroup"
)

const recentAnalysesLimit = 5

type CreateAnalysisParams struct {
	OwnerID      string
	FileName     string
	FileType     string
	FileSize     int64
	FilePath     *string
	Job          models.JobContext
	ATSScore     int
	AnalysisData json.RawMessage
	Status       models.AnalysisStatus
	UploadDate   time.Time
	AnalyzedAt   *time.Time
}

const analysisColumns = `
	id, owner_id, file_name, file_type, file_size, file_path,
	job_title, job_description, company_name, ats_score, analysis_data,
	status, upload_date, analyzed_at, created_at`

const analysisSummaryColumns = `
	id, owner_id, file_name, file_type, file_size, file_path,
	job_title, job_description, company_name, ats_score,
	status, upload_date, analyzed_at, created_at`

func scanAnalysis(row pgx.Row) (*models.AnalysisRecord, error) {
	var rec models.AnalysisRecord
	var data []byte
	err := row.Scan(
		&rec.ID, &rec.OwnerID, &rec.FileName, &rec.FileType, &rec.FileSize, &rec.FilePath,
		&rec.JobTitle, &rec.JobDescription, &rec.CompanyName, &rec.ATSScore, &data,
		&rec.Status, &rec.UploadDate, &rec.AnalyzedAt, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.AnalysisData = json.RawMessage(data)
	return &rec, nil
}

func collectSummaries(rows pgx.Rows) ([]models.AnalysisRecord, error) {
	defer rows.Close()

	var records []models.AnalysisRecord
	for rows.Next() {
		var rec models.AnalysisRecord
		err := rows.Scan(
			&rec.ID, &rec.OwnerID, &rec.FileName, &rec.FileType, &rec.FileSize, &rec.FilePath,
			&rec.JobTitle, &rec.JobDescription, &rec.CompanyName, &rec.ATSScore,
			&rec.Status, &rec.UploadDate, &rec.AnalyzedAt, &rec.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if records == nil {
		return []models.AnalysisRecord{}, nil
	}

	return records, nil
}

func (q *Queries) CreateAnalysis(ctx context.Context, arg CreateAnalysisParams) (*models.AnalysisRecord, error) {
	query := `
		INSERT INTO resume_analyses (
			id, owner_id, file_name, file_type, file_size, file_path,
			job_title, job_description, company_name, ats_score, analysis_data,
			status, upload_date, analyzed_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING ` + analysisColumns

	status := arg.Status
	if status == "" {
		status = models.StatusPending
	}
	data := []byte(arg.AnalysisData)
	if len(data) == 0 {
		data = []byte("{}")
	}
	uploadDate := arg.UploadDate
	if uploadDate.IsZero() {
		uploadDate = time.Now()
	}

	return scanAnalysis(q.db.QueryRow(ctx, query,
		uuid.NewString(),
		arg.OwnerID,
		arg.FileName,
		arg.FileType,
		arg.FileSize,
		arg.FilePath,
		arg.Job.JobTitle,
		arg.Job.JobDescription,
		arg.Job.CompanyName,
		arg.ATSScore,
		data,
		status,
		uploadDate,
		arg.AnalyzedAt,
	))
}

// ListAnalysesByOwner returns one page of the owner's records, newest first,
// plus the owner's total record count.
func (q *Queries) ListAnalysesByOwner(ctx context.Context, ownerID string, limit int, offset int) ([]models.AnalysisRecord, int, error) {
	var total int
	if err := q.db.QueryRow(ctx, `SELECT count(*) FROM resume_analyses WHERE owner_id = $1`, ownerID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + analysisSummaryColumns + `
		FROM resume_analyses
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := q.db.Query(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	records, err := collectSummaries(rows)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func (q *Queries) GetAnalysisForOwner(ctx context.Context, id string, ownerID string) (*models.AnalysisRecord, error) {
	query := `SELECT ` + analysisColumns + ` FROM resume_analyses WHERE id = $1 AND owner_id = $2`

	rec, err := scanAnalysis(q.db.QueryRow(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAnalysisNotFound
		}
		return nil, err
	}
	return rec, nil
}

// DeleteAnalysisForOwner removes the record and returns its stored file path
// so the caller can release the permanent copy.
func (q *Queries) DeleteAnalysisForOwner(ctx context.Context, id string, ownerID string) (*string, error) {
	query := `DELETE FROM resume_analyses WHERE id = $1 AND owner_id = $2 RETURNING file_path`

	var filePath *string
	err := q.db.QueryRow(ctx, query, id, ownerID).Scan(&filePath)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAnalysisNotFound
		}
		return nil, err
	}
	return filePath, nil
}

func (q *Queries) ListRecentAnalyses(ctx context.Context, ownerID string, limit int) ([]models.AnalysisRecord, error) {
	query := `
		SELECT ` + analysisSummaryColumns + `
		FROM resume_analyses
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	rows, err := q.db.Query(ctx, query, ownerID, limit)
	if err != nil {
		return nil, err
	}
	return collectSummaries(rows)
}

func (q *Queries) GetScoreSummary(ctx context.Context, ownerID string) (int, float64, error) {
	query := `SELECT count(*), COALESCE(AVG(ats_score), 0)::float8 FROM resume_analyses WHERE owner_id = $1`

	var total int
	var avg float64
	if err := q.db.QueryRow(ctx, query, ownerID).Scan(&total, &avg); err != nil {
		return 0, 0, err
	}
	return total, avg, nil
}

// GetDashboardStats runs the aggregate and the recent listing concurrently on
// the pool. It must not be called inside a transaction.
func (s *Store) GetDashboardStats(ctx context.Context, ownerID string) (*models.DashboardStats, error) {
	var (
		total  int
		avg    float64
		recent []models.AnalysisRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		total, avg, err = s.GetScoreSummary(gctx, ownerID)
		return err
	})
	g.Go(func() error {
		var err error
		recent, err = s.ListRecentAnalyses(gctx, ownerID, recentAnalysesLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &models.DashboardStats{
		TotalAnalyses:  total,
		AverageScore:   int(math.Round(avg)),
		RecentAnalyses: recent,
	}, nil
}

// PersistAnalysis stores a completed analysis and settles the owner's credit
// in one transaction. On ErrInsufficientCredits nothing is written.
func (s *Store) PersistAnalysis(ctx context.Context, arg CreateAnalysisParams) (*models.AnalysisRecord, models.Credits, error) {
	var rec *models.AnalysisRecord
	var balance models.Credits

	err := s.ExecTx(ctx, func(q *Queries) error {
		var err error
		rec, err = q.CreateAnalysis(ctx, arg)
		if err != nil {
			return err
		}

		at := time.Now()
		if arg.AnalyzedAt != nil {
			at = *arg.AnalyzedAt
		}
		balance, err = q.DebitCredit(ctx, arg.OwnerID, at)
		return err
	})
	if err != nil {
		return nil, balance, err
	}

	return rec, balance, nil
}
