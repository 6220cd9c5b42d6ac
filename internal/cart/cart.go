package cart

import (
	"errors"
	"sync"

	"github.com/iamtanmay-ui/riftbattle-sub000/internal/models"

	"github.com/shopspring/decimal"
)

// StorageKey names the persisted cart entry of a profile.
const StorageKey = "cart-storage"

var (
	ErrInvalidWarranty = errors.New("warranty must be 0, 3 or 6 months")
	ErrInvalidPrice    = errors.New("price must not be negative")
)

var warrantyFees = map[int]decimal.Decimal{
	models.WarrantyNone:     decimal.Zero,
	models.WarrantyQuarter:  decimal.NewFromInt(10),
	models.WarrantyHalfYear: decimal.NewFromInt(20),
}

// ValidWarranty reports whether months is an offered warranty length.
func ValidWarranty(months int) bool {
	_, ok := warrantyFees[months]
	return ok
}

// WarrantyFee returns the flat per-line surcharge for a warranty length.
func WarrantyFee(months int) float64 {
	return warrantyFees[months].InexactFloat64()
}

// Snapshot is the persisted form of a Store.
type Snapshot struct {
	Items []models.CartItem `json:"items"`
	Saved []models.CartItem `json:"savedItems"`
}

// PersistFunc receives the full state after every mutation.
type PersistFunc func(Snapshot)

// Store holds the active cart and the saved-for-later list of one profile.
// An id is present in at most one of the two lists, at most once.
type Store struct {
	mu      sync.RWMutex
	items   []models.CartItem
	saved   []models.CartItem
	persist PersistFunc
}

func NewStore(persist PersistFunc) *Store {
	return &Store{persist: persist}
}

// Restore replaces the state with a snapshot without persisting it.
// Rows violating the list invariants are merged on the way in.
func (s *Store) Restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	s.saved = nil
	for _, it := range snap.Items {
		s.items = mergeInto(s.items, sanitize(it))
	}
	for _, it := range snap.Saved {
		if indexOf(s.items, it.ID) >= 0 {
			continue
		}
		s.saved = mergeInto(s.saved, sanitize(it))
	}
}

func sanitize(it models.CartItem) models.CartItem {
	if it.Quantity < 1 {
		it.Quantity = 1
	}
	if !ValidWarranty(it.Warranty) {
		it.Warranty = models.WarrantyNone
	}
	return it
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Items: append([]models.CartItem{}, s.items...),
		Saved: append([]models.CartItem{}, s.saved...),
	}
}

// commit must be called with the write lock held.
func (s *Store) commit() {
	if s.persist != nil {
		s.persist(s.snapshotLocked())
	}
}

// AddItem appends the item, or increments the quantity of the existing row
// with the same id. A non-positive quantity counts as 1. Adding an id that
// sits in the saved list pulls that row back into the cart.
func (s *Store) AddItem(item models.CartItem) error {
	if item.Price < 0 {
		return ErrInvalidPrice
	}
	if !ValidWarranty(item.Warranty) {
		return ErrInvalidWarranty
	}
	if item.Quantity < 1 {
		item.Quantity = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i := indexOf(s.saved, item.ID); i >= 0 {
		item.Quantity += s.saved[i].Quantity
		s.saved = removeAt(s.saved, i)
	}
	s.items = mergeInto(s.items, item)
	s.commit()
	return nil
}

func (s *Store) RemoveItem(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := indexOf(s.items, id); i >= 0 {
		s.items = removeAt(s.items, i)
		s.commit()
	}
}

func (s *Store) RemoveSavedItem(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := indexOf(s.saved, id); i >= 0 {
		s.saved = removeAt(s.saved, i)
		s.commit()
	}
}

// UpdateQuantity sets the quantity of an active item, floored at 1.
func (s *Store) UpdateQuantity(id, quantity int) {
	if quantity < 1 {
		quantity = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i := indexOf(s.items, id); i >= 0 {
		s.items[i].Quantity = quantity
		s.commit()
	}
}

func (s *Store) UpdateWarranty(id, months int) error {
	if !ValidWarranty(months) {
		return ErrInvalidWarranty
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i := indexOf(s.items, id); i >= 0 {
		s.items[i].Warranty = months
		s.commit()
	}
	return nil
}

func (s *Store) SaveForLater(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.items, id)
	if i < 0 {
		return
	}
	item := s.items[i]
	s.items = removeAt(s.items, i)
	s.saved = mergeInto(s.saved, item)
	s.commit()
}

// MoveToCart moves a saved row back into the cart, summing quantities when
// the cart already holds the same id.
func (s *Store) MoveToCart(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.saved, id)
	if i < 0 {
		return
	}
	item := s.saved[i]
	s.saved = removeAt(s.saved, i)
	s.items = mergeInto(s.items, item)
	s.commit()
}

// ClearCart empties the active list; saved items stay.
func (s *Store) ClearCart() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	s.commit()
}

func (s *Store) Items() []models.CartItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.CartItem{}, s.items...)
}

func (s *Store) Saved() []models.CartItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.CartItem{}, s.saved...)
}

func (s *Store) CartCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, it := range s.items {
		count += it.Quantity
	}
	return count
}

// CartTotal is the sum of price * quantity, without warranty surcharges.
func (s *Store) CartTotal() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	for _, it := range s.items {
		total = total.Add(subtotal(it))
	}
	return total.InexactFloat64()
}

// LineTotal is price * quantity plus the line's warranty surcharge.
func LineTotal(item models.CartItem) float64 {
	return lineTotal(item).InexactFloat64()
}

func (s *Store) Lines() []models.CartLine {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lines := make([]models.CartLine, 0, len(s.items))
	for _, it := range s.items {
		lines = append(lines, models.CartLine{
			CartItem:    it,
			WarrantyFee: WarrantyFee(it.Warranty),
			LineTotal:   LineTotal(it),
		})
	}
	return lines
}

// GrandTotal is the amount charged at checkout: the sum of line totals.
func (s *Store) GrandTotal() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	for _, it := range s.items {
		total = total.Add(lineTotal(it))
	}
	return total.InexactFloat64()
}

func subtotal(it models.CartItem) decimal.Decimal {
	return decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity)))
}

func lineTotal(it models.CartItem) decimal.Decimal {
	return subtotal(it).Add(warrantyFees[it.Warranty])
}

func indexOf(list []models.CartItem, id int) int {
	for i, it := range list {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func removeAt(list []models.CartItem, i int) []models.CartItem {
	out := make([]models.CartItem, 0, len(list)-1)
	out = append(out, list[:i]...)
	return append(out, list[i+1:]...)
}

func mergeInto(list []models.CartItem, item models.CartItem) []models.CartItem {
	if i := indexOf(list, item.ID); i >= 0 {
		list[i].Quantity += item.Quantity
		return list
	}
	return append(list, item)
}
