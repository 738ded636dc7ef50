// Package refdata maintains the in-memory reference snapshot used by
// entity resolution: canonical companies, their synonyms and curated
// aliases. Snapshots are immutable; readers always see a consistent view
// and refreshes swap the whole snapshot atomically.
package refdata

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	types "github.com/yungbote/finsight-backend/internal/domain"
	"github.com/yungbote/finsight-backend/internal/data/repos"
	pkgerrors "github.com/yungbote/finsight-backend/internal/pkg/errors"
	"github.com/yungbote/finsight-backend/internal/pkg/logger"
	"github.com/yungbote/finsight-backend/internal/textnorm"
	"github.com/yungbote/finsight-backend/internal/utils"
)

const defaultTTL = 24 * time.Hour

// Snapshot is an immutable view of the reference data. All lookup maps
// are keyed by normalized names.
type Snapshot struct {
	Version  string
	LoadedAt time.Time

	byNormalizedName map[string]*types.CanonicalCompany
	bySynonym        map[string]*types.CanonicalCompany
	byAlias          map[string]*types.CompanyAlias
	companies        []*types.CanonicalCompany
}

func (s *Snapshot) CompanyByNormalizedName(name string) *types.CanonicalCompany {
	return s.byNormalizedName[name]
}

func (s *Snapshot) CompanyBySynonym(name string) *types.CanonicalCompany {
	return s.bySynonym[name]
}

func (s *Snapshot) AliasByName(name string) *types.CompanyAlias {
	return s.byAlias[name]
}

// Companies returns the full canonical set for scan-based matching. The
// caller must not mutate the returned slice.
func (s *Snapshot) Companies() []*types.CanonicalCompany {
	return s.companies
}

func (s *Snapshot) CompanyCount() int { return len(s.companies) }
func (s *Snapshot) AliasCount() int   { return len(s.byAlias) }

// Loader owns the current snapshot and refreshes it when it ages past
// the TTL. A failed refresh keeps serving the prior snapshot; resolution
// degrades to stale data instead of failing outright.
type Loader struct {
	companies repos.CanonicalCompanyRepo
	aliases   repos.CompanyAliasRepo
	ttl       time.Duration
	log       *logger.Logger

	// OnRefresh, when set before first use, observes the outcome of
	// every load attempt. Used to feed refresh counters.
	OnRefresh func(ok bool)

	cur       atomic.Pointer[Snapshot]
	refreshMu sync.Mutex
	version   atomic.Int64
}

func NewLoader(companies repos.CanonicalCompanyRepo, aliases repos.CompanyAliasRepo, baseLog *logger.Logger) *Loader {
	return &Loader{
		companies: companies,
		aliases:   aliases,
		ttl:       utils.GetEnvAsDuration("REFDATA_TTL", defaultTTL, baseLog),
		log:       baseLog.With("component", "refdata"),
	}
}

// Current returns the snapshot, refreshing first if it is missing or
// stale. When a refresh fails but a prior snapshot exists, the prior one
// is returned and the error is only logged.
func (l *Loader) Current(ctx context.Context) (*Snapshot, error) {
	if snap := l.cur.Load(); snap != nil && time.Since(snap.LoadedAt) < l.ttl {
		return snap, nil
	}

	l.refreshMu.Lock()
	defer l.refreshMu.Unlock()

	// Another caller may have refreshed while we waited on the lock.
	if snap := l.cur.Load(); snap != nil && time.Since(snap.LoadedAt) < l.ttl {
		return snap, nil
	}

	snap, err := l.load(ctx)
	l.notifyRefresh(err == nil)
	if err != nil {
		if prior := l.cur.Load(); prior != nil {
			l.log.Warn("reference data refresh failed, serving stale snapshot",
				"error", err, "version", prior.Version, "age", time.Since(prior.LoadedAt).String())
			return prior, nil
		}
		return nil, fmt.Errorf("%w: %v", pkgerrors.ErrReferenceDataStale, err)
	}
	l.cur.Store(snap)
	return snap, nil
}

// Refresh forces a reload regardless of TTL.
func (l *Loader) Refresh(ctx context.Context) error {
	l.refreshMu.Lock()
	defer l.refreshMu.Unlock()
	snap, err := l.load(ctx)
	l.notifyRefresh(err == nil)
	if err != nil {
		return err
	}
	l.cur.Store(snap)
	return nil
}

func (l *Loader) notifyRefresh(ok bool) {
	if l.OnRefresh != nil {
		l.OnRefresh(ok)
	}
}

func (l *Loader) load(ctx context.Context) (*Snapshot, error) {
	companies, err := l.companies.GetAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("load canonical companies: %w", err)
	}
	aliases, err := l.aliases.GetAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("load company aliases: %w", err)
	}

	snap := &Snapshot{
		Version:          fmt.Sprintf("ref-%d", l.version.Add(1)),
		LoadedAt:         time.Now().UTC(),
		byNormalizedName: make(map[string]*types.CanonicalCompany, len(companies)),
		bySynonym:        make(map[string]*types.CanonicalCompany),
		byAlias:          make(map[string]*types.CompanyAlias, len(aliases)),
		companies:        companies,
	}

	for _, c := range companies {
		key := c.NormalizedName
		if key == "" {
			key = textnorm.NormalizeCompanyName(c.DisplayName)
		}
		if key != "" {
			snap.byNormalizedName[key] = c
		}
		for _, syn := range decodeSynonyms([]byte(c.Synonyms)) {
			normalized := textnorm.NormalizeCompanyName(syn)
			if normalized == "" {
				continue
			}
			if _, taken := snap.bySynonym[normalized]; !taken {
				snap.bySynonym[normalized] = c
			}
		}
	}
	for _, a := range aliases {
		normalized := textnorm.NormalizeCompanyName(a.Alias)
		if normalized != "" {
			snap.byAlias[normalized] = a
		}
	}

	l.log.Info("reference snapshot loaded",
		"version", snap.Version, "companies", len(companies), "aliases", len(aliases))
	return snap, nil
}

func decodeSynonyms(raw []byte) []string {
	if len(raw) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	for i := range out {
		out[i] = strings.TrimSpace(out[i])
	}
	return out
}
