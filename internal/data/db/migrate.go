package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/finsight-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(

		// =========================
		// Reference data
		// =========================
		&types.CanonicalCompany{},
		&types.CompanyAlias{},

		// =========================
		// Classification output
		// =========================
		&types.SectorAssignment{},

		// =========================
		// Knowledge graph + provenance
		// =========================
		&types.KnowledgeEdge{},
		&types.DocumentIdentity{},
	)
}

func EnsureEdgeIndexes(db *gorm.DB) error {
	// uuid-ossp is already enabled in NewPostgresService, but safe to re-run
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		return fmt.Errorf("enable uuid-ossp: %w", err)
	}

	// The anti-duplication guarantee: one active edge per
	// (target_code, fingerprint). Inactive rows are free to coexist so
	// deactivate/reactivate cycles never collide with newer inserts.
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_knowledge_edge_target_fingerprint_active
		ON knowledge_edge (target_code, fingerprint)
		WHERE is_active AND deleted_at IS NULL;
	`).Error; err != nil {
		return fmt.Errorf("create idx_knowledge_edge_target_fingerprint_active: %w", err)
	}

	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_knowledge_edge_driver_target
		ON knowledge_edge (source_driver_code, target_code);
	`).Error; err != nil {
		return fmt.Errorf("create idx_knowledge_edge_driver_target: %w", err)
	}

	// Fuzzy fingerprints are for near-duplicate reporting queries only.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_knowledge_edge_fuzzy
		ON knowledge_edge (fuzzy_fingerprint)
		WHERE deleted_at IS NULL;
	`).Error; err != nil {
		return fmt.Errorf("create idx_knowledge_edge_fuzzy: %w", err)
	}

	return nil
}

func EnsureAssignmentIndexes(db *gorm.DB) error {
	// One primary among the current assignments of a company.
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_sector_assignment_primary_current
		ON sector_assignment (company_id)
		WHERE is_primary AND is_current AND deleted_at IS NULL;
	`).Error; err != nil {
		return fmt.Errorf("create idx_sector_assignment_primary_current: %w", err)
	}

	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_sector_assignment_company_current
		ON sector_assignment (company_id, is_current);
	`).Error; err != nil {
		return fmt.Errorf("create idx_sector_assignment_company_current: %w", err)
	}

	return nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	if err := AutoMigrateAll(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	if err := EnsureEdgeIndexes(s.db); err != nil {
		s.log.Error("Edge index migration failed", "error", err)
		return err
	}
	if err := EnsureAssignmentIndexes(s.db); err != nil {
		s.log.Error("Assignment index migration failed", "error", err)
		return err
	}
	return nil
}
