package contracts

import "context"

// Source produces candidates from one upstream (S0)
// ⭐ SSOT: S0 discovery interface
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]Candidate, error)
}

// Enricher resolves signals for one candidate (S1)
// ⭐ SSOT: S1 enrichment interface
type Enricher interface {
	Enrich(ctx context.Context, c Candidate) (EnrichedCandidate, error)
}

// Store persists project records keyed by url
// ⭐ SSOT: the only shared mutable resource of a cycle
type Store interface {
	// Seen is true iff a record with url exists
	Seen(ctx context.Context, url string) (bool, error)
	// Upsert inserts or fully replaces a record; atomic per key, refused once ctx is done
	Upsert(ctx context.Context, rec *ProjectRecord) error
	GetAll(ctx context.Context) ([]ProjectRecord, error)
	// GetByName looks up records by name, case-insensitive
	GetByName(ctx context.Context, name string) ([]ProjectRecord, error)
	Close() error
}

// Channel is a logical chat destination
type Channel string

const (
	ChannelMain   Channel = "main"
	ChannelReview Channel = "review"
)

// ChannelFor maps a verdict to its destination
func ChannelFor(v Verdict) Channel {
	if v == VerdictReview {
		return ChannelReview
	}
	return ChannelMain
}

// Notifier dispatches alert messages at most once
// ⭐ SSOT: notification interface
type Notifier interface {
	Send(ctx context.Context, channel Channel, message string) error
}
