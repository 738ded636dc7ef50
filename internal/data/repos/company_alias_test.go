package repos

import (
	"context"
	"testing"

	"github.com/yungbote/finsight-backend/internal/data/repos/testutil"
	types "github.com/yungbote/finsight-backend/internal/domain"
)

func TestCompanyAliasRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewCompanyAliasRepo(db, testutil.Logger(t))

	rows, err := repo.Create(ctx, tx, []*types.CompanyAlias{
		{
			Alias:        "SEMCO",
			CompanyID:    "009150",
			OfficialName: "삼성전기",
			Confidence:   types.AliasConfidenceHigh,
			CompanyType:  types.CompanyTypeListed,
		},
		{
			Alias:        "삼전",
			CompanyID:    "005930",
			OfficialName: "삼성전자",
			Confidence:   types.AliasConfidenceMedium,
			CompanyType:  types.CompanyTypeListed,
		},
	})
	if err != nil || len(rows) != 2 {
		t.Fatalf("Create: err=%v len=%d", err, len(rows))
	}

	got, err := repo.GetByAlias(ctx, tx, "SEMCO")
	if err != nil {
		t.Fatalf("GetByAlias: %v", err)
	}
	if got == nil || got.CompanyID != "009150" {
		t.Fatalf("GetByAlias: expected 009150, got %+v", got)
	}

	miss, err := repo.GetByAlias(ctx, tx, "NOPE")
	if err != nil || miss != nil {
		t.Fatalf("GetByAlias miss: err=%v got=%+v", err, miss)
	}

	// Upsert promotes an existing alias to a new confidence.
	if err := repo.UpsertByAlias(ctx, tx, &types.CompanyAlias{
		Alias:        "삼전",
		CompanyID:    "005930",
		OfficialName: "삼성전자",
		Confidence:   types.AliasConfidenceHigh,
		CompanyType:  types.CompanyTypeListed,
	}); err != nil {
		t.Fatalf("UpsertByAlias: %v", err)
	}
	got, err = repo.GetByAlias(ctx, tx, "삼전")
	if err != nil {
		t.Fatalf("GetByAlias after upsert: %v", err)
	}
	if got == nil || got.Confidence != types.AliasConfidenceHigh {
		t.Fatalf("UpsertByAlias: confidence not updated: %+v", got)
	}

	all, err := repo.GetAll(ctx, tx)
	if err != nil || len(all) < 2 {
		t.Fatalf("GetAll: err=%v len=%d", err, len(all))
	}
}
