package repos

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/finsight-backend/internal/domain"
	pkgerrors "github.com/yungbote/finsight-backend/internal/pkg/errors"
	"github.com/yungbote/finsight-backend/internal/pkg/logger"
)

type KnowledgeEdgeRepo interface {
	// Insert relies on the partial unique index over active rows; a
	// uniqueness violation surfaces as pkgerrors.ErrPersistenceConflict
	// so the caller can convert it into a duplicate-suppressed outcome.
	Insert(ctx context.Context, tx *gorm.DB, row *types.KnowledgeEdge) error

	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.KnowledgeEdge, error)
	GetActiveByTargetAndFingerprint(ctx context.Context, tx *gorm.DB, targetCode, fingerprint string) (*types.KnowledgeEdge, error)
	GetActiveByTarget(ctx context.Context, tx *gorm.DB, targetCode string) ([]*types.KnowledgeEdge, error)
	GetInactive(ctx context.Context, tx *gorm.DB) ([]*types.KnowledgeEdge, error)

	UpdateProvenance(ctx context.Context, tx *gorm.DB, id uuid.UUID, provenance []byte) error
	Deactivate(ctx context.Context, tx *gorm.DB, id uuid.UUID, reason string, at time.Time) error
	Reactivate(ctx context.Context, tx *gorm.DB, id uuid.UUID, ruleVersion string) error
}

type knowledgeEdgeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewKnowledgeEdgeRepo(db *gorm.DB, baseLog *logger.Logger) KnowledgeEdgeRepo {
	return &knowledgeEdgeRepo{db: db, log: baseLog.With("repo", "KnowledgeEdgeRepo")}
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "idx_knowledge_edge_target_fingerprint_active")
}

func (r *knowledgeEdgeRepo) Insert(ctx context.Context, tx *gorm.DB, row *types.KnowledgeEdge) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if row == nil {
		return nil
	}
	if err := t.WithContext(ctx).Create(row).Error; err != nil {
		if isUniqueViolation(err) {
			return pkgerrors.ErrPersistenceConflict
		}
		return err
	}
	return nil
}

func (r *knowledgeEdgeRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.KnowledgeEdge, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*types.KnowledgeEdge
	if err := t.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *knowledgeEdgeRepo) GetActiveByTargetAndFingerprint(ctx context.Context, tx *gorm.DB, targetCode, fingerprint string) (*types.KnowledgeEdge, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if targetCode == "" || fingerprint == "" {
		return nil, nil
	}
	var out []*types.KnowledgeEdge
	if err := t.WithContext(ctx).
		Where("target_code = ? AND fingerprint = ? AND is_active", targetCode, fingerprint).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *knowledgeEdgeRepo) GetActiveByTarget(ctx context.Context, tx *gorm.DB, targetCode string) ([]*types.KnowledgeEdge, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.KnowledgeEdge
	if targetCode == "" {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("target_code = ? AND is_active", targetCode).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *knowledgeEdgeRepo) GetInactive(ctx context.Context, tx *gorm.DB) ([]*types.KnowledgeEdge, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.KnowledgeEdge
	if err := t.WithContext(ctx).Where("NOT is_active").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *knowledgeEdgeRepo) UpdateProvenance(ctx context.Context, tx *gorm.DB, id uuid.UUID, provenance []byte) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return t.WithContext(ctx).Model(&types.KnowledgeEdge{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"provenance": provenance, "updated_at": time.Now().UTC()}).Error
}

func (r *knowledgeEdgeRepo) Deactivate(ctx context.Context, tx *gorm.DB, id uuid.UUID, reason string, at time.Time) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return t.WithContext(ctx).Model(&types.KnowledgeEdge{}).
		Where("id = ? AND is_active", id).
		Updates(map[string]interface{}{
			"is_active":       false,
			"disabled_reason": reason,
			"disabled_at":     at,
			"updated_at":      at,
		}).Error
}

func (r *knowledgeEdgeRepo) Reactivate(ctx context.Context, tx *gorm.DB, id uuid.UUID, ruleVersion string) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	err := t.WithContext(ctx).Model(&types.KnowledgeEdge{}).
		Where("id = ? AND NOT is_active", id).
		Updates(map[string]interface{}{
			"is_active":       true,
			"disabled_reason": nil,
			"disabled_at":     nil,
			"rule_version":    ruleVersion,
			"updated_at":      time.Now().UTC(),
		}).Error
	if err != nil && isUniqueViolation(err) {
		// A newer active edge took the (target, fingerprint) slot while
		// this row was inactive.
		return pkgerrors.ErrPersistenceConflict
	}
	return err
}
