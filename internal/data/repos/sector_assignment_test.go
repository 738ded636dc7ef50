package repos

import (
	"context"
	"testing"

	"gorm.io/datatypes"

	"github.com/yungbote/finsight-backend/internal/data/repos/testutil"
	types "github.com/yungbote/finsight-backend/internal/domain"
)

func TestSectorAssignmentRepoReplaceCurrent(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewSectorAssignmentRepo(db, testutil.Logger(t))

	first := []*types.SectorAssignment{
		{
			MajorSector:          "SEC_SEMI",
			SubSector:            "SUB_MEMORY",
			ValueChainPosition:   types.PositionMidstream,
			ConfidenceTier:       types.TierHigh,
			IsPrimary:            true,
			ClassificationMethod: types.MethodRevenue,
			SectorScore:          0.82,
			PriceSensitivity:     0.9,
			Rationale:            datatypes.JSON([]byte(`{"revenue_share":0.61}`)),
		},
		{
			MajorSector:          "SEC_DISPLAY",
			ValueChainPosition:   types.PositionDownstream,
			ConfidenceTier:       types.TierMedium,
			ClassificationMethod: types.MethodRevenue,
			SectorScore:          0.4,
			PriceSensitivity:     0.5,
			Rationale:            datatypes.JSON([]byte(`{}`)),
		},
	}
	if _, err := repo.ReplaceCurrent(ctx, tx, "005930", first); err != nil {
		t.Fatalf("ReplaceCurrent #1: %v", err)
	}

	cur, err := repo.GetCurrentByCompanyID(ctx, tx, "005930")
	if err != nil || len(cur) != 2 {
		t.Fatalf("GetCurrentByCompanyID: err=%v len=%d", err, len(cur))
	}
	if !cur[0].IsPrimary || cur[0].MajorSector != "SEC_SEMI" {
		t.Fatalf("expected primary SEC_SEMI first, got %+v", cur[0])
	}

	// Replacing keeps the old rows as history rather than deleting them.
	hold := "HOLD_LOW_CONF"
	second := []*types.SectorAssignment{
		{
			MajorSector:          "SEC_SEMI",
			ConfidenceTier:       types.TierHold,
			ClassificationMethod: types.MethodHold,
			HoldReasonCode:       &hold,
			Rationale:            datatypes.JSON([]byte(`{}`)),
		},
	}
	if _, err := repo.ReplaceCurrent(ctx, tx, "005930", second); err != nil {
		t.Fatalf("ReplaceCurrent #2: %v", err)
	}

	cur, err = repo.GetCurrentByCompanyID(ctx, tx, "005930")
	if err != nil || len(cur) != 1 {
		t.Fatalf("GetCurrentByCompanyID after replace: err=%v len=%d", err, len(cur))
	}
	if cur[0].ConfidenceTier != types.TierHold {
		t.Fatalf("expected HOLD tier, got %s", cur[0].ConfidenceTier)
	}

	hist, err := repo.GetHistoryByCompanyID(ctx, tx, "005930")
	if err != nil || len(hist) != 3 {
		t.Fatalf("GetHistoryByCompanyID: err=%v len=%d", err, len(hist))
	}

	holds, err := repo.GetCurrentHolds(ctx, tx)
	if err != nil {
		t.Fatalf("GetCurrentHolds: %v", err)
	}
	found := false
	for _, h := range holds {
		if h.CompanyID == "005930" {
			found = true
			if h.HoldReasonCode == nil || *h.HoldReasonCode != "HOLD_LOW_CONF" {
				t.Fatalf("expected HOLD_LOW_CONF, got %+v", h.HoldReasonCode)
			}
		}
	}
	if !found {
		t.Fatalf("GetCurrentHolds: 005930 not in %d rows", len(holds))
	}
}
