// Package resolver maps raw company mentions from financial text to
// canonical identifiers. Matching runs as an ordered cascade from exact
// lookups down to a fuzzy scan, each stage carrying a fixed confidence.
package resolver

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/yungbote/finsight-backend/internal/data/repos"
	types "github.com/yungbote/finsight-backend/internal/domain"
	"github.com/yungbote/finsight-backend/internal/pkg/logger"
	"github.com/yungbote/finsight-backend/internal/refdata"
	"github.com/yungbote/finsight-backend/internal/textnorm"
)

const (
	MethodExact         = "exact"
	MethodSynonym       = "synonym"
	MethodAlias         = "alias"
	MethodAliasUnlisted = "alias_unlisted"
	MethodFuzzy         = "fuzzy"
	MethodExternal      = "external"
	MethodUnlisted      = "unlisted"
)

const (
	fuzzyThreshold         = 0.75
	aliasFeedbackThreshold = 0.9
)

// Resolution is the outcome of a single mention lookup. ResolvedID is a
// listing code for LISTED companies and the normalized name otherwise.
type Resolution struct {
	ResolvedID  string
	CompanyType string
	Confidence  float64
	Method      string
}

// ExternalResolver is the optional last-resort lookup consulted before a
// mention is treated as unlisted. Implementations are expected to be
// slow and expensive; the cascade only reaches them when every local
// stage missed.
type ExternalResolver interface {
	Resolve(ctx context.Context, rawName string) (companyID string, ok bool, err error)
}

type Resolver struct {
	refdata  *refdata.Loader
	aliases  repos.CompanyAliasRepo
	external ExternalResolver
	cache    *gocache.Cache
	log      *logger.Logger
}

// New builds a resolver. aliases and external may be nil: without an
// alias repo fuzzy feedback is skipped, without an external resolver the
// cascade falls through to the unlisted stage.
func New(loader *refdata.Loader, aliases repos.CompanyAliasRepo, external ExternalResolver, baseLog *logger.Logger) *Resolver {
	return &Resolver{
		refdata:  loader,
		aliases:  aliases,
		external: external,
		cache:    gocache.New(1*time.Hour, 10*time.Minute),
		log:      baseLog.With("component", "resolver"),
	}
}

// Resolve runs the cascade for one raw mention.
func (r *Resolver) Resolve(ctx context.Context, rawName string) (Resolution, error) {
	normalized := textnorm.NormalizeCompanyName(rawName)
	if normalized == "" {
		return Resolution{CompanyType: types.CompanyTypeUnlisted, Method: MethodUnlisted}, nil
	}

	snap, err := r.refdata.Current(ctx)
	if err != nil {
		return Resolution{}, fmt.Errorf("resolve %q: %w", rawName, err)
	}

	// Results are memoized per snapshot version: a refreshed snapshot
	// naturally invalidates every cached resolution.
	cacheKey := snap.Version + "|" + normalized
	if cached, ok := r.cache.Get(cacheKey); ok {
		return cached.(Resolution), nil
	}

	res, err := r.resolve(ctx, snap, rawName, normalized)
	if err != nil {
		return Resolution{}, err
	}
	r.cache.Set(cacheKey, res, gocache.DefaultExpiration)
	return res, nil
}

func (r *Resolver) resolve(ctx context.Context, snap *refdata.Snapshot, rawName, normalized string) (Resolution, error) {
	if c := snap.CompanyByNormalizedName(normalized); c != nil {
		return Resolution{ResolvedID: c.CompanyID, CompanyType: types.CompanyTypeListed, Confidence: 1.0, Method: MethodExact}, nil
	}

	if c := snap.CompanyBySynonym(normalized); c != nil {
		return Resolution{ResolvedID: c.CompanyID, CompanyType: types.CompanyTypeListed, Confidence: 0.95, Method: MethodSynonym}, nil
	}

	if a := snap.AliasByName(normalized); a != nil {
		if a.CompanyID != "" {
			return Resolution{ResolvedID: a.CompanyID, CompanyType: types.CompanyTypeListed, Confidence: 0.9, Method: MethodAlias}, nil
		}
		return Resolution{ResolvedID: a.OfficialName, CompanyType: types.CompanyTypeUnlisted, Confidence: 0.85, Method: MethodAliasUnlisted}, nil
	}

	if best, score := r.fuzzyMatch(snap, normalized); best != nil && score >= fuzzyThreshold {
		r.log.Debug("fuzzy match", "raw", rawName, "company_id", best.CompanyID, "score", score)
		if score >= aliasFeedbackThreshold {
			r.recordAliasFeedback(ctx, normalized, best)
		}
		return Resolution{ResolvedID: best.CompanyID, CompanyType: types.CompanyTypeListed, Confidence: score, Method: MethodFuzzy}, nil
	}

	if r.external != nil {
		companyID, ok, err := r.external.Resolve(ctx, rawName)
		if err != nil {
			r.log.Warn("external resolver failed", "raw", rawName, "error", err)
		} else if ok && companyID != "" {
			return Resolution{ResolvedID: companyID, CompanyType: types.CompanyTypeListed, Confidence: 0.7, Method: MethodExternal}, nil
		}
	}

	return Resolution{ResolvedID: normalized, CompanyType: types.CompanyTypeUnlisted, Confidence: 0.5, Method: MethodUnlisted}, nil
}

func (r *Resolver) fuzzyMatch(snap *refdata.Snapshot, normalized string) (*types.CanonicalCompany, float64) {
	var best *types.CanonicalCompany
	bestScore := 0.0
	target := []rune(normalized)
	for _, c := range snap.Companies() {
		candidate := c.NormalizedName
		if candidate == "" {
			candidate = textnorm.NormalizeCompanyName(c.DisplayName)
		}
		score := matchRatio(target, []rune(candidate))
		if score > bestScore {
			bestScore = score
			best = c
		}
	}
	return best, bestScore
}

// recordAliasFeedback persists a high-scoring fuzzy hit as a curated
// alias so the next sighting resolves in the alias stage instead of
// rescanning. Failures only log: feedback is an optimization, not part
// of the resolution contract.
func (r *Resolver) recordAliasFeedback(ctx context.Context, normalized string, match *types.CanonicalCompany) {
	if r.aliases == nil {
		return
	}
	err := r.aliases.UpsertByAlias(ctx, nil, &types.CompanyAlias{
		Alias:        normalized,
		CompanyID:    match.CompanyID,
		OfficialName: match.DisplayName,
		Confidence:   types.AliasConfidenceMedium,
		CompanyType:  match.CompanyType,
	})
	if err != nil {
		r.log.Warn("alias feedback write failed", "alias", normalized, "error", err)
	}
}
