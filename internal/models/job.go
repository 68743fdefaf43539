package models

import "time"

// DownloadJob は1回の解決+取得リクエストの記録
type DownloadJob struct {
	ID          string     `json:"id"`
	SourceURL   string     `json:"source_url"`
	VideoID     string     `json:"video_id,omitempty"`
	Title       string     `json:"title,omitempty"`
	Quality     string     `json:"quality,omitempty"`
	Status      string     `json:"status"`
	OutputPath  string     `json:"output_path,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// ジョブステータス
const (
	JobStatusResolving    = "resolving"
	JobStatusTransferring = "transferring"
	JobStatusCompleted    = "completed"
	JobStatusFailed       = "failed"
	JobStatusRejected     = "rejected" // 重複ガードによる拒否（障害ではない）
)
