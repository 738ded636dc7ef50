package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DocumentIdentity records the stable hash of an ingested source document
// so reruns recognize it. RuleVersion pins the generation rule the hash
// was produced under; a rule change requires migrating these rows.
type DocumentIdentity struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	DocumentID     string         `gorm:"uniqueIndex;not null;column:document_id" json:"document_id"`
	Source         string         `gorm:"not null;column:source" json:"source"`
	Title          string         `gorm:"column:title" json:"title"`
	NormalizedDate string         `gorm:"column:normalized_date" json:"normalized_date"`
	CanonicalURL   string         `gorm:"column:canonical_url" json:"canonical_url"`
	RuleVersion    string         `gorm:"not null;column:rule_version" json:"rule_version"`
	CreatedAt      time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (DocumentIdentity) TableName() string {
	return "document_identity"
}
