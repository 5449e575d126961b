package models

import (
	"time"

	"github.com/uptrace/bun"
)

// QA/QC record statuses.
const (
	StatusPass    = "pass"
	StatusWarning = "warning"
	StatusFail    = "fail"
)

// QAQCRecord is a measured-vs-expected check against a drill hole.
// It references the drill hole by id only and is not removed with it.
type QAQCRecord struct {
	bun.BaseModel `bun:"table:qaqc_records,alias:qr"`

	ID            int       `bun:"id,pk,autoincrement" json:"id"`
	DrillHoleID   int       `bun:"drill_hole_id,notnull" json:"drill_hole_id"`
	RecordType    string    `bun:"record_type,notnull" json:"record_type"`
	SampleID      *string   `bun:"sample_id" json:"sample_id"`
	FromDepth     *float64  `bun:"from_depth" json:"from_depth"`
	ToDepth       *float64  `bun:"to_depth" json:"to_depth"`
	ExpectedValue *float64  `bun:"expected_value" json:"expected_value"`
	ActualValue   *float64  `bun:"actual_value" json:"actual_value"`
	Variance      *float64  `bun:"variance" json:"variance"`
	Status        string    `bun:"status,notnull,default:'pass'" json:"status"`
	Comments      *string   `bun:"comments,type:text" json:"comments"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

// QAQCItem is a free-standing QA/QC tracking ticket.
type QAQCItem struct {
	bun.BaseModel `bun:"table:qaqc_items,alias:qi"`

	ID               int       `bun:"id,pk,autoincrement" json:"id"`
	Title            string    `bun:"title,notnull" json:"title"`
	Description      *string   `bun:"description,type:text" json:"description"`
	Type             string    `bun:"type,notnull" json:"type"`
	Priority         string    `bun:"priority,notnull,default:'medium'" json:"priority"`
	Status           string    `bun:"status,notnull,default:'open'" json:"status"`
	AssignedTo       *string   `bun:"assigned_to" json:"assigned_to"`
	CreatedBy        *int      `bun:"created_by" json:"created_by"`
	DrillHole        *string   `bun:"drill_hole" json:"drill_hole"`
	CoreRun          *string   `bun:"core_run" json:"core_run"`
	CreatedDate      *string   `bun:"created_date,type:date" json:"created_date"`
	DueDate          *string   `bun:"due_date,type:date" json:"due_date"`
	ResolvedDate     *string   `bun:"resolved_date,type:date" json:"resolved_date"`
	CommentsCount    int       `bun:"comments_count,notnull,default:0" json:"comments_count"`
	AttachmentsCount int       `bun:"attachments_count,notnull,default:0" json:"attachments_count"`
	CreatedAt        time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt        time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}
