package quality

import (
	"time"

	"go.uber.org/zap"

	"github.com/KaramelBytes/tabloom/internal/dataset"
)

// DefaultCacheTTL is how long a cached report stays valid when the
// dataset fingerprint has not changed.
const DefaultCacheTTL = 5 * time.Minute

// Analyzer wraps Analyze with fingerprint-keyed caching. The fingerprint
// is cheap and structural (row count, columns, first/last rows, checksum
// of the first five rows), so a hit means "very likely unchanged", which
// is acceptable for a report the user can always force-regenerate.
type Analyzer struct {
	ttl    time.Duration
	logger *zap.Logger

	lastFingerprint string
	lastReport      *Report
	lastAt          time.Time
}

// NewAnalyzer returns an analyzer with the given cache TTL; ttl <= 0
// selects DefaultCacheTTL.
func NewAnalyzer(ttl time.Duration, logger *zap.Logger) *Analyzer {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{ttl: ttl, logger: logger}
}

// Report returns a quality report for the dataset, reusing the cached
// one when the structural fingerprint matches and the cache is younger
// than the TTL. force bypasses the cache and refreshes it.
func (a *Analyzer) Report(ds *dataset.Dataset, force bool) *Report {
	fp := ds.Fingerprint()
	if !force && a.lastReport != nil && fp == a.lastFingerprint && time.Since(a.lastAt) < a.ttl {
		a.logger.Debug("quality cache hit", zap.String("fingerprint", fp))
		return a.lastReport
	}
	rep := Analyze(ds)
	a.lastFingerprint = fp
	a.lastReport = rep
	a.lastAt = time.Now()
	a.logger.Debug("quality recomputed",
		zap.String("fingerprint", fp),
		zap.Float64("score", rep.OverallScore.Score),
		zap.Bool("forced", force))
	return rep
}

// Invalidate drops the cached report.
func (a *Analyzer) Invalidate() {
	a.lastFingerprint = ""
	a.lastReport = nil
}
