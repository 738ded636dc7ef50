package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	CompanyTypeListed   = "LISTED"
	CompanyTypeUnlisted = "UNLISTED"
)

// CanonicalCompany is a registry-loaded company. CompanyID is the listed
// ticker or a synthesized key for unlisted entities. Once CompanyType is
// set by the registry load it is never changed; aliases accumulate in the
// company_alias table instead.
type CanonicalCompany struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CompanyID      string         `gorm:"uniqueIndex;not null;column:company_id" json:"company_id"`
	DisplayName    string         `gorm:"not null;column:display_name" json:"display_name"`
	NormalizedName string         `gorm:"index;not null;column:normalized_name" json:"normalized_name"`
	Synonyms       datatypes.JSON `gorm:"type:jsonb;column:synonyms" json:"synonyms"`
	Country        string         `gorm:"column:country" json:"country"`
	Market         string         `gorm:"column:market" json:"market"`
	CompanyType    string         `gorm:"not null;default:LISTED;column:company_type" json:"company_type"`
	// MarketCapHint is advisory only: display and tie-breaks, never a
	// scoring multiplier.
	MarketCapHint *float64       `gorm:"column:market_cap_hint" json:"market_cap_hint,omitempty"`
	CreatedAt     time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (CanonicalCompany) TableName() string {
	return "canonical_company"
}
