package refdata

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/finsight-backend/internal/domain"
	"github.com/yungbote/finsight-backend/internal/pkg/logger"
)

type fakeCompanyRepo struct {
	rows    []*types.CanonicalCompany
	failing bool
	calls   int
}

func (f *fakeCompanyRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.CanonicalCompany) ([]*types.CanonicalCompany, error) {
	f.rows = append(f.rows, rows...)
	return rows, nil
}

func (f *fakeCompanyRepo) GetAll(ctx context.Context, tx *gorm.DB) ([]*types.CanonicalCompany, error) {
	f.calls++
	if f.failing {
		return nil, errors.New("db unavailable")
	}
	return f.rows, nil
}

func (f *fakeCompanyRepo) GetByCompanyIDs(ctx context.Context, tx *gorm.DB, ids []string) ([]*types.CanonicalCompany, error) {
	return nil, nil
}

func (f *fakeCompanyRepo) GetByNormalizedName(ctx context.Context, tx *gorm.DB, normalized string) (*types.CanonicalCompany, error) {
	return nil, nil
}

func (f *fakeCompanyRepo) UpsertByCompanyID(ctx context.Context, tx *gorm.DB, row *types.CanonicalCompany) error {
	return nil
}

type fakeAliasRepo struct {
	rows []*types.CompanyAlias
}

func (f *fakeAliasRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.CompanyAlias) ([]*types.CompanyAlias, error) {
	f.rows = append(f.rows, rows...)
	return rows, nil
}

func (f *fakeAliasRepo) GetAll(ctx context.Context, tx *gorm.DB) ([]*types.CompanyAlias, error) {
	return f.rows, nil
}

func (f *fakeAliasRepo) GetByAlias(ctx context.Context, tx *gorm.DB, alias string) (*types.CompanyAlias, error) {
	return nil, nil
}

func (f *fakeAliasRepo) UpsertByAlias(ctx context.Context, tx *gorm.DB, row *types.CompanyAlias) error {
	return nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func seedRepos() (*fakeCompanyRepo, *fakeAliasRepo) {
	companies := &fakeCompanyRepo{rows: []*types.CanonicalCompany{
		{
			CompanyID:      "005930",
			DisplayName:    "삼성전자",
			NormalizedName: "삼성전자",
			Synonyms:       datatypes.JSON([]byte(`["삼성전자(주)","SAMSUNG ELECTRONICS"]`)),
			CompanyType:    types.CompanyTypeListed,
		},
		{
			CompanyID:      "009150",
			DisplayName:    "삼성전기",
			NormalizedName: "삼성전기",
			Synonyms:       datatypes.JSON([]byte(`[]`)),
			CompanyType:    types.CompanyTypeListed,
		},
	}}
	aliases := &fakeAliasRepo{rows: []*types.CompanyAlias{
		{
			Alias:        "SEMCO",
			CompanyID:    "009150",
			OfficialName: "삼성전기",
			Confidence:   types.AliasConfidenceHigh,
			CompanyType:  types.CompanyTypeListed,
		},
	}}
	return companies, aliases
}

func TestLoaderBuildsLookupMaps(t *testing.T) {
	companies, aliases := seedRepos()
	l := NewLoader(companies, aliases, testLogger(t))

	snap, err := l.Current(context.Background())
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if snap.CompanyCount() != 2 || snap.AliasCount() != 1 {
		t.Fatalf("unexpected counts: companies=%d aliases=%d", snap.CompanyCount(), snap.AliasCount())
	}

	if c := snap.CompanyByNormalizedName("삼성전자"); c == nil || c.CompanyID != "005930" {
		t.Fatalf("CompanyByNormalizedName: got %+v", c)
	}
	// Synonyms are normalized the same way lookups are.
	if c := snap.CompanyBySynonym("SAMSUNGELECTRONICS"); c == nil || c.CompanyID != "005930" {
		t.Fatalf("CompanyBySynonym: got %+v", c)
	}
	if a := snap.AliasByName("SEMCO"); a == nil || a.CompanyID != "009150" {
		t.Fatalf("AliasByName: got %+v", a)
	}
	if a := snap.AliasByName("NOPE"); a != nil {
		t.Fatalf("AliasByName miss: got %+v", a)
	}
}

func TestLoaderReusesSnapshotWithinTTL(t *testing.T) {
	companies, aliases := seedRepos()
	l := NewLoader(companies, aliases, testLogger(t))

	first, err := l.Current(context.Background())
	if err != nil {
		t.Fatalf("Current #1: %v", err)
	}
	second, err := l.Current(context.Background())
	if err != nil {
		t.Fatalf("Current #2: %v", err)
	}
	if first != second {
		t.Fatalf("expected identical snapshot within TTL")
	}
	if companies.calls != 1 {
		t.Fatalf("expected a single load, got %d", companies.calls)
	}
}

func TestLoaderKeepsPriorSnapshotOnFailedRefresh(t *testing.T) {
	companies, aliases := seedRepos()
	l := NewLoader(companies, aliases, testLogger(t))
	l.ttl = time.Nanosecond

	first, err := l.Current(context.Background())
	if err != nil {
		t.Fatalf("Current #1: %v", err)
	}

	companies.failing = true
	time.Sleep(time.Millisecond)

	second, err := l.Current(context.Background())
	if err != nil {
		t.Fatalf("Current with failing refresh: %v", err)
	}
	if second != first {
		t.Fatalf("expected stale snapshot to be served")
	}
}

func TestLoaderFailsWithoutAnySnapshot(t *testing.T) {
	companies, aliases := seedRepos()
	companies.failing = true
	l := NewLoader(companies, aliases, testLogger(t))

	if _, err := l.Current(context.Background()); err == nil {
		t.Fatalf("expected error when no snapshot was ever loaded")
	}
}

func TestLoaderRefreshBumpsVersion(t *testing.T) {
	companies, aliases := seedRepos()
	l := NewLoader(companies, aliases, testLogger(t))

	first, err := l.Current(context.Background())
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if err := l.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	second, err := l.Current(context.Background())
	if err != nil {
		t.Fatalf("Current after refresh: %v", err)
	}
	if first.Version == second.Version {
		t.Fatalf("expected new version after refresh, got %q twice", first.Version)
	}
}
