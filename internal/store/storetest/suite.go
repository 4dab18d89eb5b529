// Package storetest holds the behaviour every contracts.Store must satisfy.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/quantum/internal/contracts"
)

// Factory returns a fresh, empty store
type Factory func(t *testing.T) contracts.Store

// Record builds a minimal valid record
func Record(url, name string) *contracts.ProjectRecord {
	rec := &contracts.ProjectRecord{
		Candidate: contracts.Candidate{
			Source:       "test",
			URL:          url,
			Name:         name,
			DiscoveredAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		Decision: contracts.Decision{
			Score:             42,
			Verdict:           contracts.VerdictReview,
			Risk:              contracts.RiskHigh,
			EstimatedMultiple: "x0",
			Breakdown:         map[string]float64{"audit_score": 20},
		},
		Flags:      contracts.Flags{contracts.FlagUnlisted},
		LastScanAt: time.Date(2026, 1, 1, 1, 0, 0, 0, time.UTC),
		ScanCount:  1,
	}
	rec.Signals.Set(contracts.SigLiquidityUSD, 12_345)
	rec.Ratios.AuditScore = 50
	return rec
}

// Run executes the shared store suite
func Run(t *testing.T, newStore Factory) {
	t.Run("SeenAfterUpsert", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		seen, err := store.Seen(ctx, "https://a")
		require.NoError(t, err)
		assert.False(t, seen)

		require.NoError(t, store.Upsert(ctx, Record("https://a", "Alpha")))

		seen, err = store.Seen(ctx, "https://a")
		require.NoError(t, err)
		assert.True(t, seen)
	})

	t.Run("UpsertReplacesWholeRecord", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		rec := Record("https://a", "Alpha")
		require.NoError(t, store.Upsert(ctx, rec))

		rec2 := Record("https://a", "Alpha Renamed")
		rec2.Decision.Verdict = contracts.VerdictAccept
		rec2.Flags = nil
		rec2.AlertedVerdicts = []contracts.Verdict{contracts.VerdictAccept}
		require.NoError(t, store.Upsert(ctx, rec2))

		all, err := store.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		got := all[0]
		assert.Equal(t, "Alpha Renamed", got.Name)
		assert.Equal(t, contracts.VerdictAccept, got.Decision.Verdict)
		assert.Empty(t, got.Flags)
		assert.True(t, got.WasAlerted(contracts.VerdictAccept))

		// the old name no longer resolves
		byOld, err := store.GetByName(ctx, "alpha")
		require.NoError(t, err)
		assert.Empty(t, byOld)
	})

	t.Run("RoundTripKeepsPayload", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		require.NoError(t, store.Upsert(ctx, Record("https://a", "Alpha")))

		all, err := store.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		got := all[0]
		assert.Equal(t, 12_345.0, got.Signals.Get(contracts.SigLiquidityUSD))
		assert.True(t, got.Signals.Has(contracts.SigLiquidityUSD))
		assert.Equal(t, 50.0, got.Ratios.AuditScore)
		assert.Equal(t, 20.0, got.Decision.Breakdown["audit_score"])
		assert.True(t, got.Flags.Has(contracts.FlagUnlisted))
		assert.True(t, got.LastScanAt.Equal(time.Date(2026, 1, 1, 1, 0, 0, 0, time.UTC)))
	})

	t.Run("GetByNameCaseInsensitive", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		require.NoError(t, store.Upsert(ctx, Record("https://a", "Alpha")))
		require.NoError(t, store.Upsert(ctx, Record("https://b", "ALPHA")))
		require.NoError(t, store.Upsert(ctx, Record("https://c", "Beta")))

		got, err := store.GetByName(ctx, "alpha")
		require.NoError(t, err)
		assert.Len(t, got, 2)

		got, err = store.GetByName(ctx, "gamma")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("GetByNameIgnoresSurroundingWhitespace", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		require.NoError(t, store.Upsert(ctx, Record("https://a", "  Alpha ")))

		got, err := store.GetByName(ctx, "alpha")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "  Alpha ", got[0].Name)

		got, err = store.GetByName(ctx, " ALPHA ")
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("UpsertRefusedAfterCancel", func(t *testing.T) {
		store := newStore(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := store.Upsert(ctx, Record("https://a", "Alpha"))
		require.Error(t, err)
		assert.ErrorIs(t, err, contracts.ErrStore)
		assert.ErrorIs(t, err, contracts.ErrCancelled)

		seen, err := store.Seen(context.Background(), "https://a")
		require.NoError(t, err)
		assert.False(t, seen)
	})

	t.Run("UpsertRejectsInvalid", func(t *testing.T) {
		store := newStore(t)
		err := store.Upsert(context.Background(), &contracts.ProjectRecord{})
		assert.ErrorIs(t, err, contracts.ErrStore)
	})

	t.Run("ConcurrentUpserts", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				url := fmt.Sprintf("https://p/%d", i%5)
				assert.NoError(t, store.Upsert(ctx, Record(url, fmt.Sprintf("P%d", i%5))))
			}(i)
		}
		wg.Wait()

		all, err := store.GetAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 5)
	})
}
