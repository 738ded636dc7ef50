package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	TierHigh   = "HIGH"
	TierMedium = "MEDIUM"
	TierLow    = "LOW"
	TierHold   = "HOLD"

	MethodRevenue  = "REVENUE"
	MethodKeyword  = "KEYWORD"
	MethodOverride = "OVERRIDE"
	MethodHold     = "HOLD"

	PositionUpstream   = "UPSTREAM"
	PositionMidstream  = "MIDSTREAM"
	PositionDownstream = "DOWNSTREAM"
)

// SectorAssignment is one classified (company, sector) pair. History is
// retained: reclassification appends new rows and flips IsCurrent off on
// the old ones inside the same transaction. At most one current
// assignment per company carries IsPrimary.
type SectorAssignment struct {
	ID                 uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CompanyID          string    `gorm:"index;not null;column:company_id" json:"company_id"`
	MajorSector        string    `gorm:"index;column:major_sector" json:"major_sector"`
	SubSector          string    `gorm:"column:sub_sector" json:"sub_sector"`
	ValueChainPosition string    `gorm:"column:value_chain_position" json:"value_chain_position"`
	ConfidenceTier     string    `gorm:"not null;column:confidence_tier" json:"confidence_tier"`
	IsPrimary          bool      `gorm:"not null;default:false;column:is_primary" json:"is_primary"`
	IsCurrent          bool      `gorm:"not null;default:true;index;column:is_current" json:"is_current"`
	// ClassificationMethod is REVENUE | KEYWORD | OVERRIDE | HOLD.
	ClassificationMethod string `gorm:"column:classification_method" json:"classification_method"`
	// OverrideFired separates override-derived HIGH from model-derived
	// HIGH for downstream auditing.
	OverrideFired bool    `gorm:"not null;default:false;column:override_fired" json:"override_fired"`
	SectorScore   float64 `gorm:"column:sector_score" json:"sector_score"`
	// PriceSensitivity is the sector's PSW at classification time, kept
	// on the row so the primary tie-break is auditable.
	PriceSensitivity float64 `gorm:"column:price_sensitivity" json:"price_sensitivity"`
	// HoldReasonCode is mandatory whenever ConfidenceTier is HOLD.
	HoldReasonCode *string        `gorm:"column:hold_reason_code" json:"hold_reason_code,omitempty"`
	Rationale      datatypes.JSON `gorm:"type:jsonb;column:rationale" json:"rationale"`
	CreatedAt      time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (SectorAssignment) TableName() string {
	return "sector_assignment"
}
