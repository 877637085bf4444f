package entity

import (
	"time"

	"gorm.io/datatypes"
)

// Parameter names the registry rows the pipeline reads.
const (
	ParamScoreWeights       = "score_weights"
	ParamDecisionThresholds = "decision_thresholds"
)

// Parameter is one tunable knob in the parameter registry.
type Parameter struct {
	ID           int64          `gorm:"primaryKey" json:"id"`
	Name         string         `gorm:"not null;uniqueIndex" json:"name"`
	ValueJSON    datatypes.JSON `gorm:"column:value_json;type:jsonb" json:"value_json"`
	Scope        string         `json:"scope"`
	TuneRequired int            `gorm:"not null;default:1" json:"tune_required"`
	TargetPhase  string         `json:"target_phase"`
	Rationale    string         `json:"rationale"`
	EvidenceLink string         `json:"evidence_link"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Parameter) TableName() string {
	return "parameter_registry"
}
