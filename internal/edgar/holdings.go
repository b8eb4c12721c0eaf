package edgar

import (
	"context"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/passionpotato/teslawebsite/internal/model"
)

// Institution pairs a display name with its SEC CIK. The holdings table
// keeps input order as the tie-break, so callers pass a slice, not a map.
type Institution struct {
	Name string
	CIK  string
}

// IssuerMatcher decides whether an info-table line item belongs to the
// tracked issuer: security-identifier prefix match or case-insensitive
// issuer-name substring match.
type IssuerMatcher struct {
	CUSIPPrefix   string
	NameSubstring string
}

// Match reports whether the line item is the tracked issuer. Every
// matching item is summed by the caller, so an issuer listed under two
// identifiers counts twice, mirroring the upstream behavior.
func (m IssuerMatcher) Match(item LineItem) bool {
	if m.CUSIPPrefix != "" && strings.HasPrefix(item.CUSIP, m.CUSIPPrefix) {
		return true
	}
	if m.NameSubstring != "" &&
		strings.Contains(strings.ToUpper(item.Issuer), strings.ToUpper(m.NameSubstring)) {
		return true
	}
	return false
}

// PositionSource is the per-institution slice of the EDGAR client the
// builder needs; tests stub it.
type PositionSource interface {
	HoldingsFilings(ctx context.Context, cik string, n int) ([]model.FilingRecord, error)
	Position(ctx context.Context, cik, accession string, m IssuerMatcher) (*model.PositionSnapshot, error)
}

// Builder assembles the institutional holdings table with quarter-over-
// quarter deltas.
type Builder struct {
	Source  PositionSource
	Matcher IssuerMatcher

	// Pause spaces the latest/previous document fetches for one
	// institution, per SEC fair-use expectations.
	Pause time.Duration
}

// NewBuilder creates a Builder with the standard courtesy pause.
func NewBuilder(source PositionSource, matcher IssuerMatcher) *Builder {
	return &Builder{
		Source:  source,
		Matcher: matcher,
		Pause:   400 * time.Millisecond,
	}
}

// Build produces one row per resolvable institution, sorted by latest
// share count descending with ties kept in input order. A failing
// institution is logged and skipped; it never aborts the rest.
func (b *Builder) Build(ctx context.Context, institutions []Institution) []model.HoldingsRow {
	rows := make([]model.HoldingsRow, 0, len(institutions))
	for _, inst := range institutions {
		row, err := b.buildRow(ctx, inst)
		if err != nil {
			log.Printf("[WARN] holdings: %s (CIK %s) skipped: %v", inst.Name, inst.CIK, err)
			continue
		}
		if row == nil {
			continue
		}
		rows = append(rows, *row)
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Shares > rows[j].Shares })
	return rows
}

func (b *Builder) buildRow(ctx context.Context, inst Institution) (*model.HoldingsRow, error) {
	filings, err := b.Source.HoldingsFilings(ctx, inst.CIK, 2)
	if err != nil {
		return nil, err
	}
	if len(filings) == 0 {
		return nil, nil
	}

	latest := filings[0]
	latestPos, err := b.Source.Position(ctx, inst.CIK, latest.Accession, b.Matcher)
	if err != nil {
		return nil, err
	}
	if latestPos == nil {
		return nil, nil
	}

	row := &model.HoldingsRow{
		Institution: inst.Name,
		CIK:         inst.CIK,
		ReportDate:  latest.ReportDate,
		Shares:      latestPos.Shares,
		ValueUSD:    latestPos.ValueUSD,
	}

	if len(filings) > 1 {
		if err := b.pause(ctx); err != nil {
			return row, nil
		}
		prevPos, err := b.Source.Position(ctx, inst.CIK, filings[1].Accession, b.Matcher)
		if err != nil {
			log.Printf("[WARN] holdings: %s previous quarter unavailable: %v", inst.Name, err)
		} else if prevPos != nil {
			delta := latestPos.Shares - prevPos.Shares
			row.SharesDelta = &delta
		}
	}
	return row, nil
}

func (b *Builder) pause(ctx context.Context) error {
	if b.Pause <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(b.Pause):
		return nil
	}
}
