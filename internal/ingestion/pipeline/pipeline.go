// Package pipeline runs batches of financial documents through the
// resolution, classification and edge-storage stages. Documents fan out
// over a bounded worker pool; the stages for one document run strictly
// in order. One document's failure never aborts the batch — only a
// configuration defect does.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/finsight-backend/internal/data/graph"
	"github.com/yungbote/finsight-backend/internal/data/repos"
	types "github.com/yungbote/finsight-backend/internal/domain"
	"github.com/yungbote/finsight-backend/internal/edges"
	"github.com/yungbote/finsight-backend/internal/fingerprint"
	"github.com/yungbote/finsight-backend/internal/observability"
	pkgerrors "github.com/yungbote/finsight-backend/internal/pkg/errors"
	"github.com/yungbote/finsight-backend/internal/pkg/logger"
	"github.com/yungbote/finsight-backend/internal/resolver"
	"github.com/yungbote/finsight-backend/internal/sector"
	"github.com/yungbote/finsight-backend/internal/utils"
)

type Status string

const (
	StatusStored     Status = "STORED"
	StatusSuppressed Status = "SUPPRESSED"
	StatusResolved   Status = "RESOLVED"
	StatusHeld       Status = "HELD"
	StatusSkipped    Status = "SKIPPED"
	StatusFailed     Status = "FAILED"
)

// Claim is one extracted driver→target statement in a document. An
// empty TargetCode targets the primary sector of the mentioned company.
type Claim struct {
	DriverCode   string
	TargetCode   string
	LogicSummary string
	KeySentence  string
}

// Document is one ingestion item.
type Document struct {
	Source         string
	Title          string
	ReportDate     string
	URL            string
	CompanyMention string
	Evidence       *sector.Evidence
	Claims         []Claim
}

// ItemResult is the per-document outcome record.
type ItemResult struct {
	DocumentID string
	Status     Status
	Resolution resolver.Resolution
	Stored     int
	Suppressed int
	Err        error
}

// MentionResolver is the entity-resolution stage.
type MentionResolver interface {
	Resolve(ctx context.Context, rawName string) (resolver.Resolution, error)
}

// SectorClassifier is the classification stage.
type SectorClassifier interface {
	Classify(ctx context.Context, ev sector.Evidence) ([]*types.SectorAssignment, error)
}

// EdgeUpserter is the storage stage.
type EdgeUpserter interface {
	Upsert(ctx context.Context, claim edges.Claim) (edges.Outcome, *types.KnowledgeEdge, error)
}

// SeenCache is the optional redis fast path; implementations must treat
// misses as "process normally".
type SeenCache interface {
	Seen(ctx context.Context, documentID string) bool
	MarkSeen(ctx context.Context, documentID string)
}

type Config struct {
	Resolver    MentionResolver
	Classifier  SectorClassifier
	Assignments repos.SectorAssignmentRepo
	Identities  repos.DocumentIdentityRepo
	Edges       EdgeUpserter
	Seen        SeenCache
	Graph       *graph.Client
	Metrics     *observability.Metrics
	Workers     int
}

type Pipeline struct {
	cfg     Config
	log     *logger.Logger
	metrics *observability.Metrics

	mu          sync.Mutex
	storedEdges []*types.KnowledgeEdge
}

func New(cfg Config, baseLog *logger.Logger) *Pipeline {
	if cfg.Workers < 1 {
		cfg.Workers = utils.GetEnvAsInt("PIPELINE_WORKERS", 4, baseLog)
		if cfg.Workers < 1 {
			cfg.Workers = 1
		}
	}
	m := cfg.Metrics
	if m == nil {
		m = observability.NewMetrics()
	}
	return &Pipeline{cfg: cfg, log: baseLog.With("component", "pipeline"), metrics: m}
}

// Run processes the batch and returns one result per document, index
// aligned with the input. Cancellation stops between documents and
// between claims; everything written so far is fingerprint-idempotent,
// so a rerun of the same batch is safe.
func (p *Pipeline) Run(ctx context.Context, docs []Document) ([]ItemResult, error) {
	results := make([]ItemResult, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)
	for i := range docs {
		i := i
		g.Go(func() error {
			res := p.processDocument(gctx, docs[i])
			results[i] = res
			if res.Err != nil {
				p.metrics.ItemsFailed.Inc()
				// Only a broken rule set aborts the whole batch.
				if errors.Is(res.Err, pkgerrors.ErrConfigurationDefect) {
					return res.Err
				}
				p.log.Warn("document failed", "document_id", res.DocumentID, "error", res.Err)
			}
			return nil
		})
	}
	err := g.Wait()

	p.projectStoredEdges(ctx)
	p.log.Info("batch finished", "documents", len(docs), "metrics", p.metrics.Snapshot())
	return results, err
}

func (p *Pipeline) processDocument(ctx context.Context, doc Document) ItemResult {
	docID := fingerprint.DocumentID(doc.Source, doc.Title, doc.ReportDate, doc.URL)
	res := ItemResult{DocumentID: docID}

	if err := ctx.Err(); err != nil {
		res.Status, res.Err = StatusFailed, err
		return res
	}

	if p.cfg.Seen != nil && p.cfg.Seen.Seen(ctx, docID) {
		p.metrics.DocsSkippedSeen.Inc()
		res.Status = StatusSkipped
		return res
	}

	created, err := p.cfg.Identities.Record(ctx, nil, &types.DocumentIdentity{
		DocumentID:     docID,
		Source:         doc.Source,
		Title:          doc.Title,
		NormalizedDate: fingerprint.NormalizeDate(doc.ReportDate),
		CanonicalURL:   fingerprint.CanonicalizeURL(doc.URL),
		RuleVersion:    fingerprint.IdentityRuleVersion,
	})
	if err != nil {
		res.Status, res.Err = StatusFailed, err
		return res
	}
	if !created {
		// Processed in an earlier run; refresh the fast path and move on.
		if p.cfg.Seen != nil {
			p.cfg.Seen.MarkSeen(ctx, docID)
		}
		p.metrics.DocsSkippedSeen.Inc()
		res.Status = StatusSkipped
		return res
	}
	p.metrics.DocsProcessed.Inc()

	held := false
	primaryTarget := ""
	if doc.CompanyMention != "" {
		resolution, err := p.cfg.Resolver.Resolve(ctx, doc.CompanyMention)
		if err != nil {
			res.Status, res.Err = StatusFailed, err
			return res
		}
		res.Resolution = resolution
		if resolution.CompanyType == types.CompanyTypeListed {
			p.metrics.MentionsResolved.Inc()
		} else {
			p.metrics.MentionsUnlisted.Inc()
		}

		if doc.Evidence != nil {
			primaryTarget, held, err = p.classify(ctx, resolution, *doc.Evidence)
			if err != nil {
				res.Status, res.Err = StatusFailed, err
				return res
			}
			if held {
				p.metrics.CompaniesHeld.Inc()
			}
		}
	}

	for _, claim := range doc.Claims {
		if err := ctx.Err(); err != nil {
			res.Status, res.Err = StatusFailed, err
			return res
		}
		target := claim.TargetCode
		if target == "" {
			target = primaryTarget
		}
		if target == "" {
			// A held or unclassified company gives claims no target.
			continue
		}
		outcome, edge, err := p.cfg.Edges.Upsert(ctx, edges.Claim{
			DocumentID:       docID,
			SourceDriverCode: claim.DriverCode,
			TargetCode:       target,
			LogicSummary:     claim.LogicSummary,
			KeySentence:      claim.KeySentence,
			ReportDate:       fingerprint.ParseDate(doc.ReportDate),
			Source: edges.ProvenanceSource{
				SourceUID:  docID,
				Publisher:  doc.Source,
				Title:      doc.Title,
				ReportDate: fingerprint.NormalizeDate(doc.ReportDate),
			},
		})
		if err != nil {
			res.Status, res.Err = StatusFailed, err
			return res
		}
		switch outcome {
		case edges.OutcomeStored:
			res.Stored++
			p.metrics.EdgesStored.Inc()
			p.rememberEdge(edge)
		case edges.OutcomeDuplicateSuppressed:
			res.Suppressed++
			p.metrics.EdgesSuppressed.Inc()
		}
	}

	if p.cfg.Seen != nil {
		p.cfg.Seen.MarkSeen(ctx, docID)
	}

	switch {
	case res.Stored > 0:
		res.Status = StatusStored
	case res.Suppressed > 0:
		res.Status = StatusSuppressed
	case held:
		res.Status = StatusHeld
	default:
		res.Status = StatusResolved
	}
	return res
}

// classify runs the sector stage for a resolved company and replaces
// its current assignment set. Returns the primary operating sector (""
// when the classification is a HOLD) and whether the company is held.
func (p *Pipeline) classify(ctx context.Context, resolution resolver.Resolution, ev sector.Evidence) (string, bool, error) {
	if ev.CompanyID == "" {
		ev.CompanyID = resolution.ResolvedID
	}
	assignments, err := p.cfg.Classifier.Classify(ctx, ev)
	if err != nil {
		return "", false, err
	}
	if p.cfg.Assignments != nil {
		if _, err := p.cfg.Assignments.ReplaceCurrent(ctx, nil, ev.CompanyID, assignments); err != nil {
			return "", false, err
		}
	}
	for _, a := range assignments {
		if !a.IsPrimary {
			continue
		}
		if a.ConfidenceTier == types.TierHold {
			return "", true, nil
		}
		return a.MajorSector, false, nil
	}
	return "", false, fmt.Errorf("no primary assignment for %q: %w", ev.CompanyID, pkgerrors.ErrConfigurationDefect)
}

func (p *Pipeline) rememberEdge(edge *types.KnowledgeEdge) {
	if edge == nil {
		return
	}
	p.mu.Lock()
	p.storedEdges = append(p.storedEdges, edge)
	p.mu.Unlock()
}

// projectStoredEdges mirrors this batch's new edges into neo4j.
// Best-effort: the relational store already holds them.
func (p *Pipeline) projectStoredEdges(ctx context.Context) {
	p.mu.Lock()
	batch := p.storedEdges
	p.storedEdges = nil
	p.mu.Unlock()
	if len(batch) == 0 || p.cfg.Graph == nil {
		return
	}
	if err := graph.ProjectEdges(ctx, p.cfg.Graph, p.log, batch); err != nil {
		p.log.Warn("graph projection failed", "edges", len(batch), "error", err)
	}
}
