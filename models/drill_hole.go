package models

import (
	"time"

	"github.com/uptrace/bun"
)

// DrillHole is a single drilled hole. It owns its core runs and core trays.
type DrillHole struct {
	bun.BaseModel `bun:"table:drill_holes,alias:dh"`

	ID              int       `bun:"id,pk,autoincrement" json:"id"`
	HoleID          string    `bun:"hole_id,notnull,unique" json:"hole_id"`
	ProjectName     string    `bun:"project_name,notnull" json:"project_name"`
	LocationX       *float64  `bun:"location_x" json:"location_x"`
	LocationY       *float64  `bun:"location_y" json:"location_y"`
	Elevation       *float64  `bun:"elevation" json:"elevation"`
	Azimuth         *float64  `bun:"azimuth" json:"azimuth"`
	Dip             *float64  `bun:"dip" json:"dip"`
	TotalDepth      *float64  `bun:"total_depth" json:"total_depth"`
	StartDate       *string   `bun:"start_date,type:date" json:"start_date"`
	EndDate         *string   `bun:"end_date,type:date" json:"end_date"`
	DrillingCompany *string   `bun:"drilling_company" json:"drilling_company"`
	CreatedAt       time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}
