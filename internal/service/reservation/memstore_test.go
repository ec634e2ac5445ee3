package reservation

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/Domenick1991/equb/internal/domain"
	"github.com/Domenick1991/equb/internal/repository"
)

// memStore is an in-memory Store. Transactions are fully serialized and
// work on a copy that replaces the committed state only on success, which
// gives the same visible behavior as row locks plus rollback. SaveTicket
// enforces the same constraints as the tickets table.
type memStore struct {
	mu        sync.RWMutex
	tickets   map[int]domain.Ticket
	payments  map[int64]domain.Payment
	nextID    int64
	failSave  error
	txStarted int
}

func newMemStore(poolSize int) *memStore {
	s := &memStore{tickets: map[int]domain.Ticket{}, payments: map[int64]domain.Payment{}}
	for n := 1; n <= poolSize; n++ {
		s.tickets[n] = domain.Ticket{Number: n, Status: domain.TicketStatusAvailable}
	}
	return s
}

func (s *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txStarted++

	tx := &memTx{
		tickets:  maps.Clone(s.tickets),
		payments: maps.Clone(s.payments),
		nextID:   s.nextID,
		failSave: s.failSave,
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	s.tickets, s.payments, s.nextID = tx.tickets, tx.payments, tx.nextID
	return nil
}

func (s *memStore) ticket(number int) domain.Ticket {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tickets[number]
}

func (s *memStore) payment(id int64) (domain.Payment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.payments[id]
	return p, ok
}

func (s *memStore) paymentCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.payments)
}

// seedPayment stores a pending payment holding a reserved ticket.
func (s *memStore) seedPayment(userID int64, number int, status domain.PaymentStatus) domain.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	p := domain.Payment{
		ID:           s.nextID,
		UserID:       userID,
		Amount:       mustDecimal("5000"),
		ReceiptPath:  fmt.Sprintf("receipts/seed-%d.png", s.nextID),
		TicketNumber: number,
		Status:       status,
	}
	s.payments[p.ID] = p

	owner, pid := userID, p.ID
	now := time.Now()
	t := s.tickets[number]
	t.OwnerID, t.PaymentID, t.ReservedAt = &owner, &pid, &now
	switch status {
	case domain.PaymentStatusPending:
		t.Status = domain.TicketStatusReserved
	case domain.PaymentStatusApproved:
		t.Status = domain.TicketStatusSold
	default:
		t = domain.Ticket{Number: number, Status: domain.TicketStatusAvailable}
	}
	s.tickets[number] = t
	return p
}

func (s *memStore) setTicket(t domain.Ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickets[t.Number] = t
}

type memTx struct {
	tickets  map[int]domain.Ticket
	payments map[int64]domain.Payment
	nextID   int64
	failSave error
}

func (tx *memTx) LockTicket(_ context.Context, number int) (*domain.Ticket, error) {
	t, ok := tx.tickets[number]
	if !ok {
		return nil, domain.ErrTicketNotFound
	}
	return &t, nil
}

func (tx *memTx) LockTicketByPayment(_ context.Context, paymentID int64) (*domain.Ticket, error) {
	for _, t := range tx.tickets {
		if t.PaymentID != nil && *t.PaymentID == paymentID {
			return &t, nil
		}
	}
	return nil, domain.ErrTicketNotFound
}

func (tx *memTx) LockTickets(_ context.Context, numbers []int) ([]domain.Ticket, error) {
	sorted := slices.Clone(numbers)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	out := make([]domain.Ticket, 0, len(sorted))
	for _, n := range sorted {
		if t, ok := tx.tickets[n]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (tx *memTx) SaveTicket(_ context.Context, ticket *domain.Ticket) error {
	if tx.failSave != nil {
		return tx.failSave
	}
	if _, ok := tx.tickets[ticket.Number]; !ok {
		return domain.ErrTicketNotFound
	}
	if !ticket.Consistent() {
		return errors.New("violates tickets_available_unlinked")
	}
	if ticket.PaymentID != nil {
		if _, ok := tx.payments[*ticket.PaymentID]; !ok {
			return errors.New("violates tickets_payment_id_fkey")
		}
		for n, other := range tx.tickets {
			if n != ticket.Number && other.PaymentID != nil && *other.PaymentID == *ticket.PaymentID {
				return errors.New("violates tickets_payment_id_key")
			}
		}
	}
	tx.tickets[ticket.Number] = *ticket
	return nil
}

func (tx *memTx) CreatePayment(_ context.Context, payment *domain.Payment) error {
	tx.nextID++
	payment.ID = tx.nextID
	payment.CreatedAt = time.Now()
	payment.UpdatedAt = payment.CreatedAt
	tx.payments[payment.ID] = *payment
	return nil
}

func (tx *memTx) LockPayment(_ context.Context, id int64) (*domain.Payment, error) {
	p, ok := tx.payments[id]
	if !ok {
		return nil, domain.ErrPaymentNotFound
	}
	return &p, nil
}

func (tx *memTx) SavePayment(_ context.Context, payment *domain.Payment) error {
	if _, ok := tx.payments[payment.ID]; !ok {
		return domain.ErrPaymentNotFound
	}
	payment.UpdatedAt = time.Now()
	tx.payments[payment.ID] = *payment
	return nil
}

func (tx *memTx) DeletePayment(_ context.Context, id int64) error {
	if _, ok := tx.payments[id]; !ok {
		return domain.ErrPaymentNotFound
	}
	for _, t := range tx.tickets {
		if t.PaymentID != nil && *t.PaymentID == id {
			return errors.New("violates tickets_payment_id_fkey")
		}
	}
	delete(tx.payments, id)
	return nil
}

// memTickets and memPayments are the unlocked read side over memStore.
type memTickets struct {
	store *memStore
	stale map[int]domain.Ticket
}

func (r *memTickets) GetByNumber(_ context.Context, number int) (*domain.Ticket, error) {
	if t, ok := r.stale[number]; ok {
		return &t, nil
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	t, ok := r.store.tickets[number]
	if !ok {
		return nil, domain.ErrTicketNotFound
	}
	return &t, nil
}

func (r *memTickets) ListAfter(_ context.Context, cursor, limit int) ([]domain.Ticket, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	numbers := slices.Sorted(maps.Keys(r.store.tickets))
	out := make([]domain.Ticket, 0, limit)
	for _, n := range numbers {
		if n > cursor && len(out) < limit {
			out = append(out, r.store.tickets[n])
		}
	}
	return out, nil
}

func (r *memTickets) ListByOwner(_ context.Context, ownerID int64) ([]domain.Ticket, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var out []domain.Ticket
	for _, n := range slices.Sorted(maps.Keys(r.store.tickets)) {
		t := r.store.tickets[n]
		if t.OwnerID != nil && *t.OwnerID == ownerID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *memTickets) InitPool(_ context.Context, size int) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var created int64
	for n := 1; n <= size; n++ {
		if _, ok := r.store.tickets[n]; !ok {
			r.store.tickets[n] = domain.Ticket{Number: n, Status: domain.TicketStatusAvailable}
			created++
		}
	}
	return created, nil
}

type memPayments struct {
	store *memStore
}

func (r *memPayments) GetByID(_ context.Context, id int64) (*domain.Payment, error) {
	p, ok := r.store.payment(id)
	if !ok {
		return nil, domain.ErrPaymentNotFound
	}
	return &p, nil
}

func (r *memPayments) List(_ context.Context, filter domain.PaymentFilter) ([]domain.Payment, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var out []domain.Payment
	for _, id := range slices.Sorted(maps.Keys(r.store.payments)) {
		p := r.store.payments[id]
		if filter.UserID != nil && p.UserID != *filter.UserID {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

var (
	_ repository.Store             = (*memStore)(nil)
	_ repository.TicketRepository  = (*memTickets)(nil)
	_ repository.PaymentRepository = (*memPayments)(nil)
)
