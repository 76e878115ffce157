// Package catalog holds the shop's single piece of mutable state: the listing
// map, the append-only purchase log and the identifier counter.
package catalog

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
	"sort"
	"strings"
	"sync"
	"time"
)

var (
	ErrNotFound          = errors.New("listing not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidArgument   = errors.New("invalid argument")
)

type Listing struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       uint64 `json:"price"`
	Quantity    uint64 `json:"quantity"`
	Handcrafted bool   `json:"is_handcrafted"`
}

type NewListing struct {
	Name        string
	Description string
	Price       uint64
	Quantity    uint64
	Handcrafted bool
}

// Purchase is one completed sale. TotalPrice is fixed at purchase time.
type Purchase struct {
	Buyer       string    `json:"buyer"`
	ListingID   uint64    `json:"product_id"`
	Quantity    uint64    `json:"quantity"`
	TotalPrice  uint64    `json:"total_price"`
	PurchasedAt time.Time `json:"purchased_at"`
}

type Stats struct {
	Listings  int    `json:"listings"`
	Purchases int    `json:"purchases"`
	UnitsSold uint64 `json:"units_sold"`
	Revenue   uint64 `json:"revenue"`
}

// Store serializes every operation behind one mutex, so each call runs to
// completion without interleaving with another.
type Store struct {
	mu        sync.Mutex
	listings  map[uint64]Listing
	purchases []Purchase
	nextID    uint64

	now func() time.Time
}

type Option func(*Store)

// WithClock overrides the clock used to stamp purchases.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		listings: make(map[uint64]Listing),
		nextID:   1,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) CreateListing(in NewListing) (Listing, error) {
	if strings.TrimSpace(in.Name) == "" {
		return Listing{}, fmt.Errorf("%w: name is required", ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	l := Listing{
		ID:          s.nextID,
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Quantity:    in.Quantity,
		Handcrafted: in.Handcrafted,
	}
	s.listings[l.ID] = l
	s.nextID++
	return l, nil
}

// ListListings returns copies of every listing in ascending id order.
func (s *Store) ListListings() []Listing {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedListings()
}

func (s *Store) Listing(id uint64) (Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.listings[id]
	if !ok {
		return Listing{}, fmt.Errorf("%w: id=%d", ErrNotFound, id)
	}
	return l, nil
}

// Purchase validates everything before touching state; a failed purchase
// leaves the store unchanged.
func (s *Store) Purchase(buyer string, listingID, quantity uint64) (Purchase, error) {
	if strings.TrimSpace(buyer) == "" {
		return Purchase{}, fmt.Errorf("%w: buyer identity is required", ErrInvalidArgument)
	}
	if quantity == 0 {
		return Purchase{}, fmt.Errorf("%w: quantity must be positive", ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.listings[listingID]
	if !ok {
		return Purchase{}, fmt.Errorf("%w: id=%d", ErrNotFound, listingID)
	}
	if l.Quantity < quantity {
		return Purchase{}, fmt.Errorf("%w: id=%d available=%d requested=%d",
			ErrInsufficientStock, listingID, l.Quantity, quantity)
	}
	hi, total := bits.Mul64(l.Price, quantity)
	if hi != 0 {
		return Purchase{}, fmt.Errorf("%w: total price overflows", ErrInvalidArgument)
	}

	l.Quantity -= quantity
	s.listings[listingID] = l

	p := Purchase{
		Buyer:       buyer,
		ListingID:   listingID,
		Quantity:    quantity,
		TotalPrice:  total,
		PurchasedAt: s.now(),
	}
	s.purchases = append(s.purchases, p)
	return p, nil
}

// Purchases returns the log in the order purchases completed.
func (s *Store) Purchases() []Purchase {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Purchase, len(s.purchases))
	copy(out, s.purchases)
	return out
}

func (s *Store) PurchasesByBuyer(buyer string) []Purchase {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Purchase, 0)
	for _, p := range s.purchases {
		if p.Buyer == buyer {
			out = append(out, p)
		}
	}
	return out
}

func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{Listings: len(s.listings), Purchases: len(s.purchases)}
	for _, p := range s.purchases {
		st.UnitsSold = addSaturating(st.UnitsSold, p.Quantity)
		st.Revenue = addSaturating(st.Revenue, p.TotalPrice)
	}
	return st
}

// addSaturating clamps at math.MaxUint64 instead of wrapping.
func addSaturating(a, b uint64) uint64 {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return math.MaxUint64
	}
	return sum
}

// NextID reports the identifier the next listing will receive.
func (s *Store) NextID() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextID
}

func (s *Store) sortedListings() []Listing {
	out := make([]Listing, 0, len(s.listings))
	for _, l := range s.listings {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
