package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const SnapshotVersion = 1

var (
	ErrUnsupportedSnapshot = errors.New("unsupported snapshot version")
	ErrCorruptSnapshot     = errors.New("corrupt snapshot")
)

// Snapshot is the full store state in a plain, serializable form.
type Snapshot struct {
	Version   int        `json:"version"`
	TakenAt   time.Time  `json:"taken_at"`
	NextID    uint64     `json:"next_id"`
	Listings  []Listing  `json:"listings"`
	Purchases []Purchase `json:"purchases"`
}

// Snapshot copies the whole state under the store lock.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	purchases := make([]Purchase, len(s.purchases))
	copy(purchases, s.purchases)

	return Snapshot{
		Version:   SnapshotVersion,
		TakenAt:   s.now(),
		NextID:    s.nextID,
		Listings:  s.sortedListings(),
		Purchases: purchases,
	}
}

// Load replaces the store state with snap after validating it.
func (s *Store) Load(snap Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}

	listings := make(map[uint64]Listing, len(snap.Listings))
	for _, l := range snap.Listings {
		listings[l.ID] = l
	}
	purchases := make([]Purchase, len(snap.Purchases))
	copy(purchases, snap.Purchases)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.listings = listings
	s.purchases = purchases
	s.nextID = snap.NextID
	return nil
}

// Restore builds a new store from snap.
func Restore(snap Snapshot, opts ...Option) (*Store, error) {
	s := NewStore(opts...)
	if err := s.Load(snap); err != nil {
		return nil, err
	}
	return s, nil
}

func (snap Snapshot) Validate() error {
	if snap.Version != SnapshotVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedSnapshot, snap.Version)
	}
	if snap.NextID == 0 {
		return fmt.Errorf("%w: next_id must be at least 1", ErrCorruptSnapshot)
	}

	seen := make(map[uint64]struct{}, len(snap.Listings))
	for _, l := range snap.Listings {
		if l.ID == 0 || l.ID >= snap.NextID {
			return fmt.Errorf("%w: listing id %d outside [1, %d)", ErrCorruptSnapshot, l.ID, snap.NextID)
		}
		if _, dup := seen[l.ID]; dup {
			return fmt.Errorf("%w: duplicate listing id %d", ErrCorruptSnapshot, l.ID)
		}
		seen[l.ID] = struct{}{}
	}

	for i, p := range snap.Purchases {
		if _, ok := seen[p.ListingID]; !ok {
			return fmt.Errorf("%w: purchase %d references unknown listing %d", ErrCorruptSnapshot, i, p.ListingID)
		}
		if p.Quantity == 0 {
			return fmt.Errorf("%w: purchase %d has zero quantity", ErrCorruptSnapshot, i)
		}
		if p.Buyer == "" {
			return fmt.Errorf("%w: purchase %d has no buyer", ErrCorruptSnapshot, i)
		}
		// unit price at purchase time is not stored, but the total must be a whole multiple.
		if p.TotalPrice%p.Quantity != 0 {
			return fmt.Errorf("%w: purchase %d total %d not divisible by quantity %d",
				ErrCorruptSnapshot, i, p.TotalPrice, p.Quantity)
		}
	}

	return nil
}

func Encode(snap Snapshot) ([]byte, error) {
	if snap.Listings == nil {
		snap.Listings = []Listing{}
	}
	if snap.Purchases == nil {
		snap.Purchases = []Purchase{}
	}
	return json.Marshal(snap)
}

// Decode parses and validates an encoded snapshot.
func Decode(b []byte) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if err := snap.Validate(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}
