// Package codec holds the record encoding and preconditions shared by store backends.
package codec

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/wonny/quantum/internal/contracts"
)

// CheckUpsert applies the shared Upsert preconditions: ctx still live, record valid
func CheckUpsert(ctx context.Context, rec *contracts.ProjectRecord) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: upsert refused: %w", contracts.ErrStore, contracts.ErrCancelled)
	}
	if rec == nil {
		return fmt.Errorf("%w: nil record", contracts.ErrStore)
	}
	if err := rec.Candidate.Validate(); err != nil {
		return fmt.Errorf("%w: %v", contracts.ErrStore, err)
	}
	return nil
}

// Encode serialises a record for storage
func Encode(rec *contracts.ProjectRecord) ([]byte, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("%w: encode %s: %v", contracts.ErrStore, rec.URL, err)
	}
	return data, nil
}

// Decode restores a stored record
func Decode(data []byte) (contracts.ProjectRecord, error) {
	var rec contracts.ProjectRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("%w: decode: %v", contracts.ErrStore, err)
	}
	return rec, nil
}

// NameKey normalises a name for the secondary index
func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// SortRecords orders records by first sighting, then url
func SortRecords(recs []contracts.ProjectRecord) {
	sort.SliceStable(recs, func(i, j int) bool {
		if !recs[i].FirstSeenAt.Equal(recs[j].FirstSeenAt) {
			return recs[i].FirstSeenAt.Before(recs[j].FirstSeenAt)
		}
		return recs[i].URL < recs[j].URL
	})
}
