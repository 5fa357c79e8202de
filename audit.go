package main

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"github.com/corebooks/corebooks/pkg/log"
)

// AuditOperation labels the kind of mutation captured in an audit record.
type AuditOperation string

const (
	AuditOpCreate     AuditOperation = "create"
	AuditOpUpdate     AuditOperation = "update"
	AuditOpDeactivate AuditOperation = "deactivate"
	AuditOpImport     AuditOperation = "import"
)

// AuditLog is one structured fact about a mutation: who did what to which
// entity, with before/after snapshots for reconstruction.
type AuditLog struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Actor     string         `gorm:"column:actor;type:varchar(255);not null;index" json:"actor"`
	Operation AuditOperation `gorm:"column:operation;type:varchar(64);not null" json:"operation"`
	Entity    string         `gorm:"column:entity;type:varchar(64);not null;index" json:"entity"`
	EntityID  uint           `gorm:"column:entity_id;not null" json:"entity_id"`
	Before    []byte         `gorm:"column:before_state;type:text" json:"before,omitempty"`
	After     []byte         `gorm:"column:after_state;type:text" json:"after,omitempty"`
	CreatedAt time.Time      `gorm:"column:created_at" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

// AuditStore persists audit facts. Writes are best-effort: a failed audit
// write is logged and dropped, it never blocks or fails the mutation that
// produced it.
type AuditStore struct {
	db *gorm.DB
	lg log.Logger
}

// NewAuditStore creates an AuditStore.
func NewAuditStore(db *gorm.DB, lg log.Logger) *AuditStore {
	return &AuditStore{db: db, lg: lg.WithName("audit")}
}

// Record stores one audit fact. before and after are marshalled to JSON;
// either may be nil.
func (s *AuditStore) Record(actor string, op AuditOperation, entity string, entityID uint, before, after any) {
	record := &AuditLog{
		Actor:     actor,
		Operation: op,
		Entity:    entity,
		EntityID:  entityID,
	}

	var err error
	if before != nil {
		if record.Before, err = json.Marshal(before); err != nil {
			s.lg.Warn("failed to marshal audit before-state", "entity", entity, "error", err)
		}
	}
	if after != nil {
		if record.After, err = json.Marshal(after); err != nil {
			s.lg.Warn("failed to marshal audit after-state", "entity", entity, "error", err)
		}
	}

	if err := s.db.Create(record).Error; err != nil {
		s.lg.Error("failed to persist audit record", "actor", actor, "operation", op, "entity", entity, "error", err)
	}
}

// List retrieves audit records with optional filters, newest first.
func (s *AuditStore) List(ctx context.Context, actor *string, entity *string, options *ListOptions) ([]AuditLog, error) {
	query := applyListOptions(s.db.WithContext(ctx), "created_at", SortTypeDescending, options)

	if actor != nil {
		query = query.Where("actor = ?", *actor)
	}
	if entity != nil {
		query = query.Where("entity = ?", *entity)
	}

	var logs []AuditLog
	err := query.Find(&logs).Error
	return logs, err
}
