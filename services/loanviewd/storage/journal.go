package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"lendview/services/loanform"
)

const defaultListLimit = 50

// Submission is the persisted record of one loan submit attempt.
type Submission struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Session    string    `gorm:"size:64;index"`
	Borrower   string    `gorm:"size:42;index"`
	Oracle     string    `gorm:"size:42"`
	Collateral string    `gorm:"size:64;not null"`
	Gross      string    `gorm:"size:96"`
	Fee        string    `gorm:"size:96"`
	Net        string    `gorm:"size:96"`
	Outcome    string    `gorm:"size:16;index"`
	Reason     string    `gorm:"size:32"`
	TxHash     string    `gorm:"size:66"`
	DurationMS int64
	CreatedAt  time.Time `gorm:"index"`
}

// TableName pins the journal table name.
func (Submission) TableName() string { return "loan_submissions" }

// Open connects to the journal database selected by dsn.
func Open(dsn string) (*gorm.DB, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("storage: dsn required")
	}
	var dialector gorm.Dialector
	lower := strings.ToLower(dsn)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		dialector = postgres.Open(dsn)
	} else {
		dialector = sqlite.Open(dsn)
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("storage: open: %w", err)
	}
	return db, nil
}

// AutoMigrate creates or updates the journal schema.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&Submission{})
}

// Journal persists loan submit attempts. It implements loanform.Journal.
type Journal struct {
	db *gorm.DB
}

// NewJournal wraps db.
func NewJournal(db *gorm.DB) *Journal {
	return &Journal{db: db}
}

// Append stores one submit attempt.
func (j *Journal) Append(ctx context.Context, s loanform.Submission) error {
	id, err := uuid.Parse(s.ID)
	if err != nil {
		id = uuid.New()
	}
	created := s.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	record := Submission{
		ID:         id,
		Session:    s.Session,
		Borrower:   strings.ToLower(s.Borrower),
		Oracle:     strings.ToLower(s.Oracle),
		Collateral: s.Collateral,
		Gross:      s.Gross,
		Fee:        s.Fee,
		Net:        s.Net,
		Outcome:    s.Outcome,
		Reason:     s.Reason,
		TxHash:     s.TxHash,
		DurationMS: s.Duration.Milliseconds(),
		CreatedAt:  created,
	}
	if err := j.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("storage: append submission: %w", err)
	}
	return nil
}

// BySession lists the newest submissions of a session first.
func (j *Journal) BySession(ctx context.Context, session string, limit int) ([]Submission, error) {
	return j.list(ctx, "session = ?", session, limit)
}

// ByBorrower lists the newest submissions of a borrower first.
func (j *Journal) ByBorrower(ctx context.Context, borrower string, limit int) ([]Submission, error) {
	return j.list(ctx, "borrower = ?", strings.ToLower(strings.TrimSpace(borrower)), limit)
}

func (j *Journal) list(ctx context.Context, query string, arg any, limit int) ([]Submission, error) {
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}
	var rows []Submission
	err := j.db.WithContext(ctx).
		Where(query, arg).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("storage: list submissions: %w", err)
	}
	return rows, nil
}
