package models

import (
	"time"

	"github.com/uptrace/bun"
)

// CoreRun is one drilled run within a drill hole. RunLength, TotalCoreRecovery
// and RQDPercentage are derived from the depth and length fields.
type CoreRun struct {
	bun.BaseModel `bun:"table:core_runs,alias:cr"`

	ID                  int       `bun:"id,pk,autoincrement" json:"id"`
	DrillHoleID         int       `bun:"drill_hole_id,notnull" json:"drill_hole_id"`
	RunNumber           int       `bun:"run_number,notnull" json:"run_number"`
	FromDepth           float64   `bun:"from_depth,notnull" json:"from_depth"`
	ToDepth             float64   `bun:"to_depth,notnull" json:"to_depth"`
	RunLength           float64   `bun:"run_length,notnull" json:"run_length"`
	CoreRecoveredLength float64   `bun:"core_recovered_length,notnull" json:"core_recovered_length"`
	TotalCoreRecovery   float64   `bun:"total_core_recovery,notnull" json:"total_core_recovery"`
	RQDLength           float64   `bun:"rqd_length,notnull,default:0" json:"rqd_length"`
	RQDPercentage       float64   `bun:"rqd_percentage,notnull,default:0" json:"rqd_percentage"`
	DrillingDate        *string   `bun:"drilling_date,type:date" json:"drilling_date"`
	LoggedBy            *int      `bun:"logged_by" json:"logged_by"`
	CreatedAt           time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt           time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`

	DrillHole *DrillHole `bun:"rel:belongs-to,join:drill_hole_id=id" json:"-"`
}
