package cart

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/angelmondragon/residence-portal/pkg/apiclient"
	"github.com/angelmondragon/residence-portal/pkg/session"
)

type snapshotStore interface {
	SaveCartSnapshot(ctx context.Context, sessionID string, snapshot []byte) error
	CartSnapshot(ctx context.Context, sessionID string) ([]byte, error)
}

// Snapshots keeps the last cart fetched for each session. The catalog uses
// it for badge overlays and both views fall back to it when a fetch fails.
type Snapshots struct {
	store snapshotStore
}

func NewSnapshots(store snapshotStore) *Snapshots {
	return &Snapshots{store: store}
}

// Save replaces the session's snapshot.
func (s *Snapshots) Save(ctx context.Context, cart *apiclient.Cart) error {
	if s == nil || cart == nil {
		return nil
	}
	payload, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("encoding cart snapshot: %w", err)
	}
	return s.store.SaveCartSnapshot(ctx, session.SessionIDFromContext(ctx), payload)
}

// Load returns the snapshot, reporting false when none is stored.
func (s *Snapshots) Load(ctx context.Context) (*apiclient.Cart, bool) {
	if s == nil {
		return nil, false
	}
	raw, err := s.store.CartSnapshot(ctx, session.SessionIDFromContext(ctx))
	if err != nil || len(raw) == 0 {
		return nil, false
	}
	var cart apiclient.Cart
	if err := json.Unmarshal(raw, &cart); err != nil {
		return nil, false
	}
	return &cart, true
}
