package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"mediadl/internal/models"
)

const jobColumns = `id, source_url, video_id, title, quality, status, output_path, error, created_at, completed_at`

// JobRepository はダウンロードジョブ履歴のデータアクセス層
type JobRepository struct {
	db *DB
}

// NewJobRepository は新しいJobRepositoryを作成
func NewJobRepository(db *DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create は新しいジョブを記録する
func (r *JobRepository) Create(ctx context.Context, job *models.DownloadJob) error {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	if job.Status == "" {
		job.Status = models.JobStatusResolving
	}
	job.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO download_jobs (id, source_url, video_id, title, quality, status, output_path, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.SourceURL, job.VideoID, job.Title, job.Quality, job.Status, job.OutputPath, job.Error, job.CreatedAt,
	)
	return err
}

// MarkTransferring は解決結果を記録して転送フェーズへ進める
func (r *JobRepository) MarkTransferring(ctx context.Context, id, videoID, title, quality string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE download_jobs SET status = ?, video_id = ?, title = ?, quality = ? WHERE id = ?`,
		models.JobStatusTransferring, videoID, title, quality, id,
	)
	return err
}

// Complete は転送成功を記録する
func (r *JobRepository) Complete(ctx context.Context, id, outputPath string) error {
	now := time.Now()
	_, err := r.db.ExecContext(ctx, `
		UPDATE download_jobs SET status = ?, output_path = ?, completed_at = ? WHERE id = ?`,
		models.JobStatusCompleted, outputPath, now, id,
	)
	return err
}

// Fail は失敗を記録する
func (r *JobRepository) Fail(ctx context.Context, id, errMsg string) error {
	return r.finish(ctx, id, models.JobStatusFailed, errMsg)
}

// Reject は重複ガードによる拒否を記録する（failedとは区別する）
func (r *JobRepository) Reject(ctx context.Context, id, errMsg string) error {
	return r.finish(ctx, id, models.JobStatusRejected, errMsg)
}

func (r *JobRepository) finish(ctx context.Context, id, status, errMsg string) error {
	now := time.Now()
	_, err := r.db.ExecContext(ctx, `
		UPDATE download_jobs SET status = ?, error = ?, completed_at = ? WHERE id = ?`,
		status, errMsg, now, id,
	)
	return err
}

// GetByID はIDでジョブを取得（存在しない場合はnil）
func (r *JobRepository) GetByID(ctx context.Context, id string) (*models.DownloadJob, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM download_jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}

// ListRecent は最近のジョブ一覧を取得
func (r *JobRepository) ListRecent(ctx context.Context, limit int) ([]models.DownloadJob, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+jobColumns+` FROM download_jobs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []models.DownloadJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

// CountByStatus はステータスごとの件数を取得
func (r *JobRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM download_jobs GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*models.DownloadJob, error) {
	var job models.DownloadJob
	var completedAt sql.NullTime
	err := row.Scan(
		&job.ID, &job.SourceURL, &job.VideoID, &job.Title, &job.Quality,
		&job.Status, &job.OutputPath, &job.Error, &job.CreatedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		job.CompletedAt = &completedAt.Time
	}
	return &job, nil
}
