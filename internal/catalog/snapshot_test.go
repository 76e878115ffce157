package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func seededStore(t *testing.T) *Store {
	t.Helper()

	s := newTestStore()
	_, err := s.CreateListing(watchA())
	require.NoError(t, err)
	_, err = s.CreateListing(NewListing{Name: "Watch B", Description: "steel", Price: 4500, Quantity: 2})
	require.NoError(t, err)
	_, err = s.Purchase("alice", 1, 3)
	require.NoError(t, err)
	_, err = s.Purchase("bob", 2, 1)
	require.NoError(t, err)
	return s
}

func TestSnapshot_RoundTrip(t *testing.T) {
	s := seededStore(t)

	body, err := Encode(s.Snapshot())
	require.NoError(t, err)

	snap, err := Decode(body)
	require.NoError(t, err)

	restored, err := Restore(snap, WithClock(s.now))
	require.NoError(t, err)

	require.Equal(t, s.ListListings(), restored.ListListings())
	require.Equal(t, s.Purchases(), restored.Purchases())
	require.Equal(t, s.NextID(), restored.NextID())
	require.Equal(t, s.Snapshot(), restored.Snapshot())
}

func TestSnapshot_EmptyStoreRoundTrip(t *testing.T) {
	s := newTestStore()

	body, err := Encode(s.Snapshot())
	require.NoError(t, err)

	snap, err := Decode(body)
	require.NoError(t, err)
	require.Equal(t, uint64(1), snap.NextID)
	require.Empty(t, snap.Listings)
	require.Empty(t, snap.Purchases)
}

func TestSnapshot_RestoredCounterContinues(t *testing.T) {
	s := seededStore(t)

	restored, err := Restore(s.Snapshot())
	require.NoError(t, err)

	l, err := restored.CreateListing(NewListing{Name: "Watch C"})
	require.NoError(t, err)
	require.Equal(t, uint64(3), l.ID)
}

func TestSnapshot_EncodingIsDeterministic(t *testing.T) {
	s := seededStore(t)

	a, err := Encode(s.Snapshot())
	require.NoError(t, err)
	b, err := Encode(s.Snapshot())
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestDecode_Rejects(t *testing.T) {
	cases := map[string]struct {
		body string
		want error
	}{
		"not json": {
			body: `{`,
			want: ErrCorruptSnapshot,
		},
		"unknown version": {
			body: `{"version":2,"next_id":1,"listings":[],"purchases":[]}`,
			want: ErrUnsupportedSnapshot,
		},
		"zero next id": {
			body: `{"version":1,"next_id":0,"listings":[],"purchases":[]}`,
			want: ErrCorruptSnapshot,
		},
		"listing id at counter": {
			body: `{"version":1,"next_id":2,"listings":[{"id":2,"name":"x"}],"purchases":[]}`,
			want: ErrCorruptSnapshot,
		},
		"duplicate listing": {
			body: `{"version":1,"next_id":3,"listings":[{"id":1,"name":"x"},{"id":1,"name":"y"}],"purchases":[]}`,
			want: ErrCorruptSnapshot,
		},
		"purchase of unknown listing": {
			body: `{"version":1,"next_id":2,"listings":[{"id":1,"name":"x"}],
				"purchases":[{"buyer":"a","product_id":7,"quantity":1,"total_price":1}]}`,
			want: ErrCorruptSnapshot,
		},
		"zero quantity purchase": {
			body: `{"version":1,"next_id":2,"listings":[{"id":1,"name":"x"}],
				"purchases":[{"buyer":"a","product_id":1,"quantity":0,"total_price":0}]}`,
			want: ErrCorruptSnapshot,
		},
		"total not a multiple of quantity": {
			body: `{"version":1,"next_id":2,"listings":[{"id":1,"name":"x"}],
				"purchases":[{"buyer":"a","product_id":1,"quantity":3,"total_price":10}]}`,
			want: ErrCorruptSnapshot,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(tc.body))
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestLoad_InvalidSnapshotKeepsState(t *testing.T) {
	s := seededStore(t)
	before := s.Snapshot()

	err := s.Load(Snapshot{Version: SnapshotVersion, NextID: 0})
	require.ErrorIs(t, err, ErrCorruptSnapshot)
	require.Equal(t, before, s.Snapshot())
}
