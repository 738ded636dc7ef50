// Package fingerprint derives the stable identifiers of the knowledge
// graph: document identities and claim fingerprints. Every derivation is
// a pure function of its inputs so re-running ingestion over the same
// material yields the same keys.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/yungbote/finsight-backend/internal/textnorm"
)

// IdentityRuleVersion tags every identity and edge produced by the
// current rule set. Changing any normalization or hashing rule requires
// bumping this version; rows carrying an older version are candidates
// for revalidation, never silent rewrites.
const IdentityRuleVersion = "v0.1-rc1"

var dateLayouts = []struct {
	layout       string
	twoDigitYear bool
}{
	{"2006-01-02", false},
	{"2006.01.02", false},
	{"2006/01/02", false},
	{"06.01.02", true},
	{"06-01-02", true},
	{"06/01/02", true},
	{"2006-01-02 15:04:05", false},
	{"2006.01.02 15:04:05", false},
	{"2006/01/02 15:04:05", false},
	{"2006-01-02T15:04:05", false},
	{"2006-01-02T15:04:05.999999", false},
}

// NormalizeDate canonicalizes a publication date to YYYY-MM-DD.
// Two-digit years are assumed to be 2000s; four-digit years pass
// through untouched. Unparseable input yields "NA" rather than an
// error: a missing date must still produce a deterministic identity.
func NormalizeDate(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "NA"
	}
	for _, dl := range dateLayouts {
		dt, err := time.Parse(dl.layout, s)
		if err != nil {
			continue
		}
		if dl.twoDigitYear && dt.Year() < 2000 {
			dt = dt.AddDate(2000, 0, 0)
		}
		return dt.Format("2006-01-02")
	}
	return "NA"
}

// ParseDate is NormalizeDate's time.Time form, for callers that need
// the instant rather than the canonical string. Unparseable input
// yields the zero time.
func ParseDate(raw string) time.Time {
	normalized := NormalizeDate(raw)
	if normalized == "NA" {
		return time.Time{}
	}
	dt, err := time.Parse("2006-01-02", normalized)
	if err != nil {
		return time.Time{}
	}
	return dt
}

// CanonicalizeURL keeps scheme, host and path, dropping query string and
// fragment. Unparseable or empty input yields "NA".
func CanonicalizeURL(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "NA"
	}
	u, err := url.Parse(s)
	if err != nil {
		return "NA"
	}
	var canonical string
	if u.Scheme != "" {
		canonical = fmt.Sprintf("%s://%s%s", u.Scheme, u.Host, u.Path)
	} else {
		canonical = u.Host + u.Path
	}
	if canonical == "" {
		return "NA"
	}
	return canonical
}

// DocumentID derives the 32-hex-char identity of a source document from
// source|title|normalized_date|canonical_url. Missing source or title
// degrade to "NA" so partial metadata still resolves to a stable key.
func DocumentID(source, title, date, rawURL string) string {
	s := strings.TrimSpace(source)
	if s == "" {
		s = "NA"
	}
	t := strings.TrimSpace(title)
	if t == "" {
		t = "NA"
	}
	payload := fmt.Sprintf("%s|%s|%s|%s", s, t, NormalizeDate(date), CanonicalizeURL(rawURL))
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])[:32]
}

// ClaimFingerprint hashes the identity-normalized claim text to a
// 16-hex-char key. Empty claims produce an empty fingerprint, which the
// edge store rejects.
func ClaimFingerprint(text string) string {
	normalized := textnorm.NormalizeForIdentity(text)
	if normalized == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])[:16]
}

// FuzzyClaimFingerprint hashes the fuzzy-normalized claim text. It is
// diagnostic only: never part of a uniqueness key, but useful to tell
// "no similar claims exist" apart from "similar claims fragmented into
// distinct exact fingerprints".
func FuzzyClaimFingerprint(text string) string {
	normalized := textnorm.NormalizeForFuzzy(text)
	if normalized == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])[:16]
}
