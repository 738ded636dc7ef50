package repos

import (
	"context"
	"testing"

	"github.com/yungbote/finsight-backend/internal/data/repos/testutil"
	types "github.com/yungbote/finsight-backend/internal/domain"
)

func TestDocumentIdentityRepoRecord(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewDocumentIdentityRepo(db, testutil.Logger(t))

	row := &types.DocumentIdentity{
		DocumentID:     "a1b2c3d4e5f60718",
		Source:         "kiwoom",
		Title:          "반도체 업황 점검",
		NormalizedDate: "2025-01-02",
		CanonicalURL:   "https://example.com/report/123",
		RuleVersion:    "v0.1-rc1",
	}

	created, err := repo.Record(ctx, tx, row)
	if err != nil {
		t.Fatalf("Record #1: %v", err)
	}
	if !created {
		t.Fatalf("Record #1: expected created=true")
	}

	// Second sighting of the same document is a no-op.
	again := &types.DocumentIdentity{
		DocumentID:     "a1b2c3d4e5f60718",
		Source:         "kiwoom",
		Title:          "반도체 업황 점검",
		NormalizedDate: "2025-01-02",
		CanonicalURL:   "https://example.com/report/123",
		RuleVersion:    "v0.1-rc1",
	}
	created, err = repo.Record(ctx, tx, again)
	if err != nil {
		t.Fatalf("Record #2: %v", err)
	}
	if created {
		t.Fatalf("Record #2: expected created=false")
	}

	exists, err := repo.Exists(ctx, tx, "a1b2c3d4e5f60718")
	if err != nil || !exists {
		t.Fatalf("Exists: err=%v exists=%v", err, exists)
	}

	exists, err = repo.Exists(ctx, tx, "ffffffffffffffff")
	if err != nil || exists {
		t.Fatalf("Exists miss: err=%v exists=%v", err, exists)
	}
}
