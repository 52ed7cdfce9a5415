package journal

import (
	"fmt"
	"time"

	"tenant-bootstrapper/core/events"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Record is one journaled event.
type Record struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	RunID        string    `gorm:"index;size:36" json:"runId"`
	Type         string    `gorm:"index;size:32" json:"type"`
	Area         string    `gorm:"size:64" json:"area,omitempty"`
	Code         string    `gorm:"index;size:64" json:"code,omitempty"`
	Message      string    `json:"message,omitempty"`
	WillRetry    bool      `json:"willRetry,omitempty"`
	ItemID       string    `gorm:"size:64" json:"itemId,omitempty"`
	ItemKey      string    `json:"item,omitempty"`
	ItemLanguage string    `gorm:"size:16" json:"language,omitempty"`
	DurationMs   int64     `json:"durationMs,omitempty"`
	CreatedAt    time.Time `json:"time"`
}

// TableName overrides the gorm default.
func (Record) TableName() string {
	return "journal_events"
}

// Filter narrows a Query. Empty fields match everything.
type Filter struct {
	RunID string
	Type  string
	Code  string
	// Limit caps the number of records; zero means 100.
	Limit int
}

const defaultLimit = 100

// Journal is an events.Sink writing to the database.
type Journal struct {
	db     *gorm.DB
	runID  string
	logger *zap.Logger
}

// New migrates the journal table and returns a journal writing under runID.
func New(db *gorm.DB, runID string, logger *zap.Logger) (*Journal, error) {
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("failed to migrate journal: %w", err)
	}
	return &Journal{db: db, runID: runID, logger: logger}, nil
}

// RunID returns the run the journal writes under.
func (j *Journal) RunID() string {
	return j.runID
}

// Emit stores e. A failed write is logged and dropped so the run goes on.
func (j *Journal) Emit(e events.Event) {
	if e.Type == events.TypeProgress {
		return
	}

	rec := Record{
		RunID:      j.runID,
		Type:       string(e.Type),
		Area:       e.Area,
		Code:       string(e.Code),
		Message:    e.Message,
		WillRetry:  e.WillRetry,
		DurationMs: e.Duration.Milliseconds(),
		CreatedAt:  e.Time,
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	if e.Item != nil {
		rec.ItemID = e.Item.ID
		rec.ItemKey = e.Item.Key()
		rec.ItemLanguage = e.Item.Language
	}

	if err := j.db.Create(&rec).Error; err != nil {
		j.logger.Warn("Failed to journal event", zap.String("type", rec.Type), zap.Error(err))
	}
}

// Query returns the records matching f, oldest first.
func (j *Journal) Query(f Filter) ([]Record, error) {
	q := j.db.Model(&Record{})
	if f.RunID != "" {
		q = q.Where("run_id = ?", f.RunID)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Code != "" {
		q = q.Where("code = ?", f.Code)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	var out []Record
	if err := q.Order("id ASC").Limit(limit).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	return out, nil
}

// Counts returns the number of journaled events per type for the run.
func (j *Journal) Counts() (map[string]int64, error) {
	var rows []struct {
		Type  string
		Total int64
	}
	err := j.db.Model(&Record{}).
		Select("type, count(*) as total").
		Where("run_id = ?", j.runID).
		Group("type").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count journal events: %w", err)
	}

	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Type] = r.Total
	}
	return out, nil
}
