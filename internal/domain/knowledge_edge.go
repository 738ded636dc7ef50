package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	TargetTypeSector     = "SECTOR"
	TargetTypeValueChain = "VALUE_CHAIN"
	TargetTypeDriver     = "DRIVER"

	RelationIndustryDrivenBy = "INDUSTRY_DRIVEN_BY"
)

// KnowledgeEdge is a causal driver→target edge extracted from a source
// document. Uniqueness is (TargetCode, Fingerprint) over active rows; the
// partial unique index in EnsureEdgeIndexes backs that at the storage
// layer. Rows are soft-deleted only: IsActive flips off with a reason and
// timestamp, and a rule-version revalidation can flip it back on.
type KnowledgeEdge struct {
	ID               uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	DocumentID       string    `gorm:"index;not null;column:document_id" json:"document_id"`
	SourceDriverCode string    `gorm:"index;column:source_driver_code" json:"source_driver_code"`
	TargetCode       string    `gorm:"index;not null;column:target_code" json:"target_code"`
	TargetType       string    `gorm:"not null;default:SECTOR;column:target_type" json:"target_type"`
	RelationType     string    `gorm:"not null;default:INDUSTRY_DRIVEN_BY;column:relation_type" json:"relation_type"`
	LogicSummary     string    `gorm:"type:text;column:logic_summary" json:"logic_summary"`
	KeySentence      string    `gorm:"type:text;column:key_sentence" json:"key_sentence"`
	// Fingerprint is the identity hash of the normalized logic summary.
	Fingerprint string `gorm:"index;not null;column:fingerprint" json:"fingerprint"`
	// FuzzyFingerprint is the coarser analytics hash. Never part of the
	// uniqueness key.
	FuzzyFingerprint string     `gorm:"index;column:fuzzy_fingerprint" json:"fuzzy_fingerprint"`
	ValidFrom        *time.Time `gorm:"index;column:valid_from" json:"valid_from,omitempty"`
	ValidTo          *time.Time `gorm:"column:valid_to" json:"valid_to,omitempty"`
	IsActive         bool       `gorm:"not null;default:true;index;column:is_active" json:"is_active"`
	DisabledReason   *string    `gorm:"type:text;column:disabled_reason" json:"disabled_reason,omitempty"`
	DisabledAt       *time.Time `gorm:"column:disabled_at" json:"disabled_at,omitempty"`
	RuleVersion      string     `gorm:"column:rule_version" json:"rule_version"`
	// Provenance holds the accumulated source list ({"sources": [...]}).
	Provenance datatypes.JSON `gorm:"type:jsonb;column:provenance" json:"provenance"`
	CreatedAt  time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (KnowledgeEdge) TableName() string {
	return "knowledge_edge"
}
