package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Tray defaults applied on create.
const (
	DefaultTrayLocation = "Core Shed"
	DefaultTrayStatus   = "active"
)

// CoreTray is a physical tray of core. Barcode and RFIDTag are alternate lookup keys.
type CoreTray struct {
	bun.BaseModel `bun:"table:core_trays,alias:ct"`

	ID          int       `bun:"id,pk,autoincrement" json:"id"`
	TrayID      string    `bun:"tray_id,notnull,unique" json:"tray_id"`
	DrillHoleID int       `bun:"drill_hole_id,notnull" json:"drill_hole_id"`
	FromDepth   float64   `bun:"from_depth,notnull" json:"from_depth"`
	ToDepth     float64   `bun:"to_depth,notnull" json:"to_depth"`
	Barcode     *string   `bun:"barcode" json:"barcode"`
	RFIDTag     *string   `bun:"rfid_tag" json:"rfid_tag"`
	PhotoPath   *string   `bun:"photo_path" json:"photo_path"`
	Location    *string   `bun:"location" json:"location"`
	Status      string    `bun:"status,notnull,default:'active'" json:"status"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt   time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}
