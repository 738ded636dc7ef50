// Package edges manages the lifecycle of causal knowledge edges:
// absent → active → inactive → active again per (target, fingerprint).
// Writing is idempotent: a claim that normalizes to an existing active
// edge enriches that edge's provenance instead of creating a row.
package edges

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/finsight-backend/internal/data/repos"
	types "github.com/yungbote/finsight-backend/internal/domain"
	"github.com/yungbote/finsight-backend/internal/fingerprint"
	pkgerrors "github.com/yungbote/finsight-backend/internal/pkg/errors"
	"github.com/yungbote/finsight-backend/internal/pkg/logger"
)

type Outcome string

const (
	OutcomeStored              Outcome = "STORED"
	OutcomeDuplicateSuppressed Outcome = "DUPLICATE_SUPPRESSED"
)

const (
	// maxProvenanceSources caps the accumulated source list; the oldest
	// entries fall off first.
	maxProvenanceSources = 50
	// validityWindow is how long an edge stays valid past its report date.
	validityWindow = 365 * 24 * time.Hour
)

// Claim is one extracted driver→target statement to be persisted.
type Claim struct {
	DocumentID       string
	SourceDriverCode string
	TargetCode       string
	TargetType       string
	RelationType     string
	LogicSummary     string
	KeySentence      string
	ReportDate       time.Time
	Source           ProvenanceSource
}

// ProvenanceSource identifies one sighting of a claim.
type ProvenanceSource struct {
	SourceUID  string `json:"source_uid"`
	Publisher  string `json:"publisher,omitempty"`
	Title      string `json:"title,omitempty"`
	ReportDate string `json:"report_date,omitempty"`
	AddedAt    string `json:"added_at"`
}

type provenance struct {
	Sources []ProvenanceSource `json:"sources"`
}

type Manager struct {
	edges repos.KnowledgeEdgeRepo
	log   *logger.Logger
	now   func() time.Time
}

func NewManager(edges repos.KnowledgeEdgeRepo, baseLog *logger.Logger) *Manager {
	return &Manager{
		edges: edges,
		log:   baseLog.With("component", "edge_manager"),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Upsert stores a claim or suppresses it as a duplicate of an active
// edge with the same (target, fingerprint). Suppression is not an
// error: the duplicate's source is folded into the surviving edge's
// provenance. A concurrent writer losing the race on the partial unique
// index lands on the same suppressed path.
func (m *Manager) Upsert(ctx context.Context, claim Claim) (Outcome, *types.KnowledgeEdge, error) {
	if claim.TargetCode == "" {
		return "", nil, fmt.Errorf("claim without target: %w", pkgerrors.ErrInvalidArgument)
	}
	fp := fingerprint.ClaimFingerprint(claim.LogicSummary)
	if fp == "" {
		return "", nil, fmt.Errorf("claim %q normalizes to empty text: %w", claim.DocumentID, pkgerrors.ErrInvalidArgument)
	}

	if existing, err := m.edges.GetActiveByTargetAndFingerprint(ctx, nil, claim.TargetCode, fp); err != nil {
		return "", nil, err
	} else if existing != nil {
		if err := m.appendProvenance(ctx, existing, claim.Source); err != nil {
			return "", nil, err
		}
		return OutcomeDuplicateSuppressed, existing, nil
	}

	row, err := m.buildRow(claim, fp)
	if err != nil {
		return "", nil, err
	}
	if err := m.edges.Insert(ctx, nil, row); err != nil {
		if !errors.Is(err, pkgerrors.ErrPersistenceConflict) {
			return "", nil, err
		}
		// Lost the index race: fold into the row that won.
		winner, getErr := m.edges.GetActiveByTargetAndFingerprint(ctx, nil, claim.TargetCode, fp)
		if getErr != nil {
			return "", nil, getErr
		}
		if winner == nil {
			return "", nil, err
		}
		if err := m.appendProvenance(ctx, winner, claim.Source); err != nil {
			return "", nil, err
		}
		return OutcomeDuplicateSuppressed, winner, nil
	}
	return OutcomeStored, row, nil
}

func (m *Manager) buildRow(claim Claim, fp string) (*types.KnowledgeEdge, error) {
	targetType := claim.TargetType
	if targetType == "" {
		targetType = types.TargetTypeSector
	}
	relation := claim.RelationType
	if relation == "" {
		relation = types.RelationIndustryDrivenBy
	}
	reportDate := claim.ReportDate
	if reportDate.IsZero() {
		reportDate = m.now()
	}
	validTo := reportDate.Add(validityWindow)

	source := claim.Source
	if source.AddedAt == "" {
		source.AddedAt = m.now().Format(time.RFC3339)
	}
	raw, err := json.Marshal(provenance{Sources: []ProvenanceSource{source}})
	if err != nil {
		return nil, err
	}
	return &types.KnowledgeEdge{
		DocumentID:       claim.DocumentID,
		SourceDriverCode: claim.SourceDriverCode,
		TargetCode:       claim.TargetCode,
		TargetType:       targetType,
		RelationType:     relation,
		LogicSummary:     claim.LogicSummary,
		KeySentence:      claim.KeySentence,
		Fingerprint:      fp,
		FuzzyFingerprint: fingerprint.FuzzyClaimFingerprint(claim.LogicSummary),
		ValidFrom:        &reportDate,
		ValidTo:          &validTo,
		IsActive:         true,
		RuleVersion:      fingerprint.IdentityRuleVersion,
		Provenance:       datatypes.JSON(raw),
	}, nil
}

// appendProvenance prepends the source to the edge's list, newest
// first, skipping sightings already recorded under the same source UID.
func (m *Manager) appendProvenance(ctx context.Context, edge *types.KnowledgeEdge, source ProvenanceSource) error {
	var p provenance
	if len(edge.Provenance) > 0 {
		if err := json.Unmarshal(edge.Provenance, &p); err != nil {
			m.log.Warn("resetting unreadable provenance", "edge_id", edge.ID, "error", err)
			p = provenance{}
		}
	}
	if source.SourceUID != "" {
		for _, s := range p.Sources {
			if s.SourceUID == source.SourceUID {
				return nil
			}
		}
	}
	if source.AddedAt == "" {
		source.AddedAt = m.now().Format(time.RFC3339)
	}
	p.Sources = append([]ProvenanceSource{source}, p.Sources...)
	if len(p.Sources) > maxProvenanceSources {
		p.Sources = p.Sources[:maxProvenanceSources]
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	if err := m.edges.UpdateProvenance(ctx, nil, edge.ID, raw); err != nil {
		return err
	}
	edge.Provenance = datatypes.JSON(raw)
	return nil
}

// Deactivate soft-deletes an edge, recording why and when. The row
// stays queryable and revalidation can bring it back.
func (m *Manager) Deactivate(ctx context.Context, id uuid.UUID, reason string) error {
	if id == uuid.Nil {
		return fmt.Errorf("deactivate: %w", pkgerrors.ErrInvalidArgument)
	}
	if err := m.edges.Deactivate(ctx, nil, id, reason, m.now()); err != nil {
		return err
	}
	m.log.Info("edge deactivated", "edge_id", id, "reason", reason)
	return nil
}

// Revalidate reexamines every inactive edge under a new rule version
// and reactivates those the validator accepts, returning the count. An
// edge whose (target, fingerprint) slot was retaken by a newer active
// edge stays inactive; that conflict is expected and only logged.
func (m *Manager) Revalidate(ctx context.Context, ruleVersion string, validator func(*types.KnowledgeEdge) bool) (int, error) {
	if validator == nil {
		return 0, fmt.Errorf("revalidate without validator: %w", pkgerrors.ErrInvalidArgument)
	}
	inactive, err := m.edges.GetInactive(ctx, nil)
	if err != nil {
		return 0, err
	}
	reactivated := 0
	for _, edge := range inactive {
		if err := ctx.Err(); err != nil {
			return reactivated, err
		}
		if !validator(edge) {
			continue
		}
		switch err := m.edges.Reactivate(ctx, nil, edge.ID, ruleVersion); {
		case err == nil:
			reactivated++
		case errors.Is(err, pkgerrors.ErrPersistenceConflict):
			m.log.Info("reactivation slot taken", "edge_id", edge.ID, "target", edge.TargetCode)
		default:
			return reactivated, err
		}
	}
	m.log.Info("revalidation finished", "rule_version", ruleVersion, "examined", len(inactive), "reactivated", reactivated)
	return reactivated, nil
}
