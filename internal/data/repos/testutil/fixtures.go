package testutil

import (
	"context"
	"testing"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/finsight-backend/internal/domain"
)

func SeedCompany(tb testing.TB, ctx context.Context, tx *gorm.DB, companyID, displayName, normalized string) *types.CanonicalCompany {
	tb.Helper()
	c := &types.CanonicalCompany{
		CompanyID:      companyID,
		DisplayName:    displayName,
		NormalizedName: normalized,
		Synonyms:       datatypes.JSON([]byte("[]")),
		Country:        "KR",
		Market:         "KOSPI",
		CompanyType:    types.CompanyTypeListed,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed company: %v", err)
	}
	return c
}

func SeedAlias(tb testing.TB, ctx context.Context, tx *gorm.DB, alias, companyID, officialName string) *types.CompanyAlias {
	tb.Helper()
	a := &types.CompanyAlias{
		Alias:        alias,
		CompanyID:    companyID,
		OfficialName: officialName,
		Confidence:   types.AliasConfidenceHigh,
		CompanyType:  types.CompanyTypeListed,
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed alias: %v", err)
	}
	return a
}

func SeedEdge(tb testing.TB, ctx context.Context, tx *gorm.DB, targetCode, fingerprint string) *types.KnowledgeEdge {
	tb.Helper()
	now := time.Now().UTC()
	later := now.AddDate(0, 0, 365)
	e := &types.KnowledgeEdge{
		DocumentID:       "doc-" + fingerprint,
		SourceDriverCode: "DRV_RATES",
		TargetCode:       targetCode,
		TargetType:       types.TargetTypeSector,
		RelationType:     types.RelationIndustryDrivenBy,
		LogicSummary:     "rates pressure margins",
		KeySentence:      "Rising rates pressure sector margins.",
		Fingerprint:      fingerprint,
		FuzzyFingerprint: "fz-" + fingerprint,
		ValidFrom:        &now,
		ValidTo:          &later,
		IsActive:         true,
		RuleVersion:      "v0.1-rc1",
		Provenance:       datatypes.JSON([]byte("[]")),
	}
	if err := tx.WithContext(ctx).Create(e).Error; err != nil {
		tb.Fatalf("seed edge: %v", err)
	}
	return e
}

func PtrString(v string) *string { return &v }

func PtrTime(v time.Time) *time.Time { return &v }
