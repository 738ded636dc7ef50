package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"gorm.io/gorm"

	types "github.com/yungbote/finsight-backend/internal/domain"
	"github.com/yungbote/finsight-backend/internal/edges"
	"github.com/yungbote/finsight-backend/internal/fingerprint"
	pkgerrors "github.com/yungbote/finsight-backend/internal/pkg/errors"
	"github.com/yungbote/finsight-backend/internal/pkg/logger"
	"github.com/yungbote/finsight-backend/internal/resolver"
	"github.com/yungbote/finsight-backend/internal/sector"
)

type fakeResolver struct {
	failOn string
}

func (f *fakeResolver) Resolve(ctx context.Context, rawName string) (resolver.Resolution, error) {
	if rawName == f.failOn && f.failOn != "" {
		return resolver.Resolution{}, fmt.Errorf("resolver unavailable")
	}
	if rawName == "삼성전자" {
		return resolver.Resolution{ResolvedID: "005930", CompanyType: types.CompanyTypeListed, Confidence: 1.0, Method: resolver.MethodExact}, nil
	}
	return resolver.Resolution{ResolvedID: rawName, CompanyType: types.CompanyTypeUnlisted, Confidence: 0.5, Method: resolver.MethodUnlisted}, nil
}

type fakeClassifier struct {
	assignments []*types.SectorAssignment
	err         error
}

func (f *fakeClassifier) Classify(ctx context.Context, ev sector.Evidence) ([]*types.SectorAssignment, error) {
	return f.assignments, f.err
}

type fakeAssignments struct {
	replaced map[string][]*types.SectorAssignment
}

func (f *fakeAssignments) ReplaceCurrent(ctx context.Context, tx *gorm.DB, companyID string, rows []*types.SectorAssignment) ([]*types.SectorAssignment, error) {
	if f.replaced == nil {
		f.replaced = map[string][]*types.SectorAssignment{}
	}
	f.replaced[companyID] = rows
	return rows, nil
}

func (f *fakeAssignments) GetCurrentByCompanyID(ctx context.Context, tx *gorm.DB, companyID string) ([]*types.SectorAssignment, error) {
	return f.replaced[companyID], nil
}

func (f *fakeAssignments) GetHistoryByCompanyID(ctx context.Context, tx *gorm.DB, companyID string) ([]*types.SectorAssignment, error) {
	return f.replaced[companyID], nil
}

func (f *fakeAssignments) GetCurrentHolds(ctx context.Context, tx *gorm.DB) ([]*types.SectorAssignment, error) {
	return nil, nil
}

type fakeIdentities struct {
	seen map[string]bool
}

func (f *fakeIdentities) Record(ctx context.Context, tx *gorm.DB, row *types.DocumentIdentity) (bool, error) {
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	if f.seen[row.DocumentID] {
		return false, nil
	}
	f.seen[row.DocumentID] = true
	return true, nil
}

func (f *fakeIdentities) Exists(ctx context.Context, tx *gorm.DB, documentID string) (bool, error) {
	return f.seen[documentID], nil
}

type fakeUpserter struct {
	stored map[string]bool
}

func (f *fakeUpserter) Upsert(ctx context.Context, claim edges.Claim) (edges.Outcome, *types.KnowledgeEdge, error) {
	if f.stored == nil {
		f.stored = map[string]bool{}
	}
	key := claim.TargetCode + "|" + fingerprint.ClaimFingerprint(claim.LogicSummary)
	if f.stored[key] {
		return edges.OutcomeDuplicateSuppressed, &types.KnowledgeEdge{TargetCode: claim.TargetCode}, nil
	}
	f.stored[key] = true
	return edges.OutcomeStored, &types.KnowledgeEdge{TargetCode: claim.TargetCode, IsActive: true}, nil
}

type fakeSeen struct {
	marked map[string]bool
}

func (f *fakeSeen) Seen(ctx context.Context, documentID string) bool {
	return f.marked[documentID]
}

func (f *fakeSeen) MarkSeen(ctx context.Context, documentID string) {
	if f.marked == nil {
		f.marked = map[string]bool{}
	}
	f.marked[documentID] = true
}

func listedAssignments() []*types.SectorAssignment {
	return []*types.SectorAssignment{{
		CompanyID:      "005930",
		MajorSector:    "SEC_SEMI",
		ConfidenceTier: types.TierHigh,
		IsPrimary:      true,
		IsCurrent:      true,
	}}
}

func newTestPipeline(t *testing.T, cfg Config) *Pipeline {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	if cfg.Identities == nil {
		cfg.Identities = &fakeIdentities{}
	}
	if cfg.Edges == nil {
		cfg.Edges = &fakeUpserter{}
	}
	if cfg.Resolver == nil {
		cfg.Resolver = &fakeResolver{}
	}
	if cfg.Workers == 0 {
		cfg.Workers = 1
	}
	return New(cfg, log)
}

func TestRunStoresAndSuppresses(t *testing.T) {
	p := newTestPipeline(t, Config{})
	docs := []Document{
		{
			Source: "증권사A", Title: "정유 업황 1", ReportDate: "2025-03-02", URL: "https://a.example/1",
			Claims: []Claim{{DriverCode: "DRV_OIL", TargetCode: "SEC_ENERGY", LogicSummary: "유가 상승 -> 정유 마진 개선"}},
		},
		{
			Source: "증권사B", Title: "정유 업황 2", ReportDate: "2025-03-03", URL: "https://b.example/2",
			Claims: []Claim{{DriverCode: "DRV_OIL", TargetCode: "SEC_ENERGY", LogicSummary: "유가  상승 => 정유 마진 개선"}},
		},
	}
	results, err := p.Run(context.Background(), docs)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if results[0].Status != StatusStored || results[0].Stored != 1 {
		t.Fatalf("first doc: %+v", results[0])
	}
	if results[1].Status != StatusSuppressed || results[1].Suppressed != 1 {
		t.Fatalf("second doc: %+v", results[1])
	}
}

func TestRunSeenCacheSkips(t *testing.T) {
	seen := &fakeSeen{marked: map[string]bool{}}
	docID := fingerprint.DocumentID("증권사A", "정유 업황 1", "2025-03-02", "https://a.example/1")
	seen.marked[docID] = true

	ids := &fakeIdentities{}
	p := newTestPipeline(t, Config{Seen: seen, Identities: ids})
	results, err := p.Run(context.Background(), []Document{{
		Source: "증권사A", Title: "정유 업황 1", ReportDate: "2025-03-02", URL: "https://a.example/1",
	}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if results[0].Status != StatusSkipped {
		t.Fatalf("status = %s, want SKIPPED", results[0].Status)
	}
	if len(ids.seen) != 0 {
		t.Fatalf("identity store touched for a cached document")
	}
}

func TestRunRepeatedIdentitySkipsAndWarmsCache(t *testing.T) {
	seen := &fakeSeen{}
	p := newTestPipeline(t, Config{Seen: seen})
	doc := Document{Source: "증권사A", Title: "정유 업황 1", ReportDate: "2025-03-02", URL: "https://a.example/1"}

	if _, err := p.Run(context.Background(), []Document{doc}); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	// Clear the cache entry to force the identity-table gate.
	seen.marked = map[string]bool{}

	results, err := p.Run(context.Background(), []Document{doc})
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if results[0].Status != StatusSkipped {
		t.Fatalf("status = %s, want SKIPPED", results[0].Status)
	}
	if !seen.marked[results[0].DocumentID] {
		t.Fatalf("cache not rewarmed after identity-table hit")
	}
}

func TestRunClassifiesAndTargetsPrimarySector(t *testing.T) {
	assignments := &fakeAssignments{}
	upserter := &fakeUpserter{}
	p := newTestPipeline(t, Config{
		Classifier:  &fakeClassifier{assignments: listedAssignments()},
		Assignments: assignments,
		Edges:       upserter,
	})
	results, err := p.Run(context.Background(), []Document{{
		Source: "증권사A", Title: "삼성전자 분석", ReportDate: "2025-03-02", URL: "https://a.example/3",
		CompanyMention: "삼성전자",
		Evidence:       &sector.Evidence{Name: "삼성전자"},
		Claims:         []Claim{{DriverCode: "DRV_HBM", LogicSummary: "HBM 수요 증가 -> 메모리 업황 개선"}},
	}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if results[0].Status != StatusStored {
		t.Fatalf("status = %s, want STORED", results[0].Status)
	}
	if results[0].Resolution.ResolvedID != "005930" {
		t.Fatalf("resolution: %+v", results[0].Resolution)
	}
	if len(assignments.replaced["005930"]) != 1 {
		t.Fatalf("assignments not replaced: %+v", assignments.replaced)
	}
	key := "SEC_SEMI|" + fingerprint.ClaimFingerprint("HBM 수요 증가 -> 메모리 업황 개선")
	if !upserter.stored[key] {
		t.Fatalf("claim not stored against primary sector: %+v", upserter.stored)
	}
}

func TestRunHeldCompanyStoresNothing(t *testing.T) {
	code := "HOLD_NO_EVIDENCE"
	held := []*types.SectorAssignment{{
		CompanyID:      "999999",
		ConfidenceTier: types.TierHold,
		HoldReasonCode: &code,
		IsPrimary:      true,
	}}
	upserter := &fakeUpserter{}
	p := newTestPipeline(t, Config{
		Classifier: &fakeClassifier{assignments: held},
		Edges:      upserter,
	})
	results, err := p.Run(context.Background(), []Document{{
		Source: "증권사A", Title: "무명 기업", ReportDate: "2025-03-02", URL: "https://a.example/4",
		CompanyMention: "알수없는곳",
		Evidence:       &sector.Evidence{Name: "알수없는곳"},
		Claims:         []Claim{{DriverCode: "DRV_X", LogicSummary: "모호한 주장"}},
	}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if results[0].Status != StatusHeld {
		t.Fatalf("status = %s, want HELD", results[0].Status)
	}
	if len(upserter.stored) != 0 {
		t.Fatalf("held company stored edges: %+v", upserter.stored)
	}
}

func TestRunItemFailureDoesNotAbortBatch(t *testing.T) {
	p := newTestPipeline(t, Config{Resolver: &fakeResolver{failOn: "고장난곳"}})
	results, err := p.Run(context.Background(), []Document{
		{
			Source: "증권사A", Title: "실패 문서", ReportDate: "2025-03-02", URL: "https://a.example/5",
			CompanyMention: "고장난곳",
		},
		{
			Source: "증권사A", Title: "정상 문서", ReportDate: "2025-03-02", URL: "https://a.example/6",
			Claims: []Claim{{DriverCode: "DRV_OIL", TargetCode: "SEC_ENERGY", LogicSummary: "유가 상승 -> 정유 마진 개선"}},
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if results[0].Status != StatusFailed || results[0].Err == nil {
		t.Fatalf("first doc: %+v", results[0])
	}
	if results[1].Status != StatusStored {
		t.Fatalf("second doc: %+v", results[1])
	}
}

func TestRunConfigurationDefectAborts(t *testing.T) {
	// A classifier emitting no primary assignment is a broken rule set.
	p := newTestPipeline(t, Config{
		Classifier: &fakeClassifier{assignments: []*types.SectorAssignment{{
			CompanyID:      "005930",
			MajorSector:    "SEC_SEMI",
			ConfidenceTier: types.TierHigh,
		}}},
	})
	_, err := p.Run(context.Background(), []Document{{
		Source: "증권사A", Title: "결함", ReportDate: "2025-03-02", URL: "https://a.example/7",
		CompanyMention: "삼성전자",
		Evidence:       &sector.Evidence{Name: "삼성전자"},
	}})
	if !errors.Is(err, pkgerrors.ErrConfigurationDefect) {
		t.Fatalf("expected configuration defect, got %v", err)
	}
}
