package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	AliasConfidenceHigh   = "HIGH"
	AliasConfidenceMedium = "MEDIUM"
	AliasConfidenceLow    = "LOW"
)

// CompanyAlias maps a normalized alias string to a canonical company.
// For unlisted entities CompanyID is empty and OfficialName carries the
// resolved identifier. Rows come from seed scripts or resolver feedback;
// the table is read-heavy and rarely mutated.
type CompanyAlias struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Alias        string         `gorm:"uniqueIndex;not null;column:alias" json:"alias"`
	CompanyID    string         `gorm:"index;column:company_id" json:"company_id"`
	OfficialName string         `gorm:"column:official_name" json:"official_name"`
	Confidence   string         `gorm:"not null;default:HIGH;column:confidence" json:"confidence"`
	CompanyType  string         `gorm:"not null;default:LISTED;column:company_type" json:"company_type"`
	CreatedAt    time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (CompanyAlias) TableName() string {
	return "company_alias"
}
