package edgar

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passionpotato/teslawebsite/internal/model"
)

// stubSource serves canned filings and positions per CIK.
type stubSource struct {
	filings   map[string][]model.FilingRecord
	positions map[string]*model.PositionSnapshot // keyed by accession
	errCIK    string
}

func (s *stubSource) HoldingsFilings(_ context.Context, cik string, n int) ([]model.FilingRecord, error) {
	if cik == s.errCIK {
		return nil, errors.New("sec: status 503")
	}
	f := s.filings[cik]
	if len(f) > n {
		f = f[:n]
	}
	return f, nil
}

func (s *stubSource) Position(_ context.Context, _, accession string, _ IssuerMatcher) (*model.PositionSnapshot, error) {
	return s.positions[accession], nil
}

func filing(cik, acc, date string) model.FilingRecord {
	return model.FilingRecord{CIK: cik, Accession: acc, ReportDate: date}
}

func newTestBuilder(src PositionSource) *Builder {
	b := NewBuilder(src, IssuerMatcher{CUSIPPrefix: "88160R", NameSubstring: "TESLA"})
	b.Pause = 0
	return b
}

func TestBuildSortsByLatestSharesDescending(t *testing.T) {
	src := &stubSource{
		filings: map[string][]model.FilingRecord{
			"1": {filing("1", "a1", "2024-06-30")},
			"2": {filing("2", "b1", "2024-06-30")},
			"3": {filing("3", "c1", "2024-06-30")},
		},
		positions: map[string]*model.PositionSnapshot{
			"a1": {Shares: 100, ValueUSD: 1000},
			"b1": {Shares: 300, ValueUSD: 3000},
			"c1": {Shares: 200, ValueUSD: 2000},
		},
	}
	rows := newTestBuilder(src).Build(context.Background(), []Institution{
		{"Alpha", "1"}, {"Beta", "2"}, {"Gamma", "3"},
	})
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Beta", "Gamma", "Alpha"},
		[]string{rows[0].Institution, rows[1].Institution, rows[2].Institution})
}

func TestBuildStableTieBreakByInputOrder(t *testing.T) {
	src := &stubSource{
		filings: map[string][]model.FilingRecord{
			"1": {filing("1", "a1", "2024-06-30")},
			"2": {filing("2", "b1", "2024-06-30")},
		},
		positions: map[string]*model.PositionSnapshot{
			"a1": {Shares: 500},
			"b1": {Shares: 500},
		},
	}
	rows := newTestBuilder(src).Build(context.Background(), []Institution{
		{"First", "1"}, {"Second", "2"},
	})
	require.Len(t, rows, 2)
	assert.Equal(t, "First", rows[0].Institution)
	assert.Equal(t, "Second", rows[1].Institution)
}

func TestBuildDelta(t *testing.T) {
	src := &stubSource{
		filings: map[string][]model.FilingRecord{
			"1": {filing("1", "a2", "2024-06-30"), filing("1", "a1", "2024-03-31")},
			"2": {filing("2", "b1", "2024-06-30")},
		},
		positions: map[string]*model.PositionSnapshot{
			"a2": {Shares: 800},
			"a1": {Shares: 1000},
			"b1": {Shares: 50},
		},
	}
	rows := newTestBuilder(src).Build(context.Background(), []Institution{
		{"Trimmed", "1"}, {"Single", "2"},
	})
	require.Len(t, rows, 2)

	require.NotNil(t, rows[0].SharesDelta)
	assert.Equal(t, int64(-200), *rows[0].SharesDelta, "delta can be negative")
	assert.Equal(t, "2024-06-30", rows[0].ReportDate)

	assert.Nil(t, rows[1].SharesDelta, "delta undefined with fewer than two filings")
}

func TestBuildSkipsFailingInstitution(t *testing.T) {
	src := &stubSource{
		filings: map[string][]model.FilingRecord{
			"1": {filing("1", "a1", "2024-06-30")},
		},
		positions: map[string]*model.PositionSnapshot{"a1": {Shares: 10}},
		errCIK:    "2",
	}
	rows := newTestBuilder(src).Build(context.Background(), []Institution{
		{"Broken", "2"}, {"Fine", "1"},
	})
	require.Len(t, rows, 1, "one failing institution must not abort the others")
	assert.Equal(t, "Fine", rows[0].Institution)
}

func TestBuildSkipsUnresolvableFiling(t *testing.T) {
	src := &stubSource{
		filings: map[string][]model.FilingRecord{
			"1": {filing("1", "a1", "2024-06-30")},
		},
		// No position for a1: the client found no info-table document.
		positions: map[string]*model.PositionSnapshot{},
	}
	rows := newTestBuilder(src).Build(context.Background(), []Institution{{"Ghost", "1"}})
	assert.Empty(t, rows)
}

func TestBuildKeepsZeroSnapshot(t *testing.T) {
	src := &stubSource{
		filings: map[string][]model.FilingRecord{
			"1": {filing("1", "a1", "2024-06-30")},
		},
		positions: map[string]*model.PositionSnapshot{"a1": {}},
	}
	rows := newTestBuilder(src).Build(context.Background(), []Institution{{"NoHolding", "1"}})
	require.Len(t, rows, 1, "a confirmed zero position is a row, not an omission")
	assert.Zero(t, rows[0].Shares)
	assert.Zero(t, rows[0].ValueUSD)
}
