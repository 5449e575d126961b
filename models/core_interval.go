package models

import (
	"time"

	"github.com/uptrace/bun"
)

// CoreInterval holds the geological log for a depth range within a core run.
// OreMinerals and StructuralFeatures hold serialized text; see FlexText.
type CoreInterval struct {
	bun.BaseModel `bun:"table:core_intervals,alias:ci"`

	ID             int     `bun:"id,pk,autoincrement" json:"id"`
	CoreRunID      int     `bun:"core_run_id,notnull" json:"core_run_id"`
	FromDepth      float64 `bun:"from_depth,notnull" json:"from_depth"`
	ToDepth        float64 `bun:"to_depth,notnull" json:"to_depth"`
	IntervalLength float64 `bun:"interval_length,notnull" json:"interval_length"`

	// Geology
	Lithology     *string `bun:"lithology" json:"lithology"`
	LithologyCode *string `bun:"lithology_code" json:"lithology_code"`
	RockType      *string `bun:"rock_type" json:"rock_type"`
	Color         *string `bun:"color" json:"color"`
	GrainSize     *string `bun:"grain_size" json:"grain_size"`
	Texture       *string `bun:"texture" json:"texture"`

	// Alteration
	AlterationType      *string `bun:"alteration_type" json:"alteration_type"`
	AlterationIntensity *string `bun:"alteration_intensity" json:"alteration_intensity"`
	AlterationStyle     *string `bun:"alteration_style" json:"alteration_style"`

	// Mineralization
	MineralizationType  *string `bun:"mineralization_type" json:"mineralization_type"`
	MineralizationStyle *string `bun:"mineralization_style" json:"mineralization_style"`
	MineralAbundance    *string `bun:"mineral_abundance" json:"mineral_abundance"`
	OreMinerals         *string `bun:"ore_minerals,type:text" json:"ore_minerals"`

	// Structure
	FractureFrequency    *int    `bun:"fracture_frequency" json:"fracture_frequency"`
	FractureOrientation  *string `bun:"fracture_orientation" json:"fracture_orientation"`
	BeddingOrientation   *string `bun:"bedding_orientation" json:"bedding_orientation"`
	FoliationOrientation *string `bun:"foliation_orientation" json:"foliation_orientation"`
	StructuralFeatures   *string `bun:"structural_features,type:text" json:"structural_features"`

	// Geotechnical
	RockStrength    *string `bun:"rock_strength" json:"rock_strength"`
	WeatheringGrade *string `bun:"weathering_grade" json:"weathering_grade"`

	RecoveryPercentage *float64  `bun:"recovery_percentage" json:"recovery_percentage"`
	RQDContribution    float64   `bun:"rqd_contribution,notnull,default:0" json:"rqd_contribution"`
	Comments           *string   `bun:"comments,type:text" json:"comments"`
	LoggedBy           *int      `bun:"logged_by" json:"logged_by"`
	LoggedDate         *string   `bun:"logged_date,type:date" json:"logged_date"`
	CreatedAt          time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt          time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`

	CoreRun *CoreRun `bun:"rel:belongs-to,join:core_run_id=id" json:"-"`
}
