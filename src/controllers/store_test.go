package controllers

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"hbs/src/models"
	"hbs/src/types"

	"github.com/google/uuid"
)

// memStore mirrors the conditional-update semantics of the gorm repository.
type memStore struct {
	mu       sync.Mutex
	programs map[uint]*models.Program
	bookings map[uuid.UUID]*models.Booking
	trail    []models.TrailLog
	admins   []string

	// barrier holds the first readers of GetBooking until all of them arrive.
	barrier     *sync.WaitGroup
	barrierLeft int
}

func newMemStore() *memStore {
	return &memStore{
		programs: map[uint]*models.Program{},
		bookings: map[uuid.UUID]*models.Booking{},
	}
}

func (s *memStore) holdReaders(n int) {
	s.barrier = &sync.WaitGroup{}
	s.barrier.Add(n)
	s.barrierLeft = n
}

func (s *memStore) addProgram(p *models.Program) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.programs[p.ID] = p
}

func (s *memStore) addBooking(b *models.Booking) *models.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	cp := *b
	s.bookings[b.ID] = &cp
	return b
}

func (s *memStore) booking(id uuid.UUID) *models.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil
	}
	cp := *b
	return &cp
}

func (s *memStore) trailOf(kind string) []models.TrailLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.TrailLog{}
	for _, t := range s.trail {
		if t.Type == kind {
			out = append(out, t)
		}
	}
	return out
}

func (s *memStore) GetProgram(ctx context.Context, id uint) (*models.Program, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.programs[id]
	if !ok {
		return nil, types.ErrProgramNotFound
	}
	return p, nil
}

func (s *memStore) GetProgramBySlug(ctx context.Context, slug string) (*models.Program, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.programs {
		if p.Slug == slug {
			return p, nil
		}
	}
	return nil, types.ErrProgramNotFound
}

func (s *memStore) ListPrograms(ctx context.Context) ([]models.Program, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Program{}
	for _, p := range s.programs {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) CreateBooking(ctx context.Context, booking *models.Booking) error {
	booking.ID = uuid.New()
	booking.CreatedAt = time.Now()
	booking.UpdatedAt = booking.CreatedAt
	s.addBooking(booking)
	return nil
}

func (s *memStore) GetBooking(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	s.mu.Lock()
	wait := false
	if s.barrier != nil && s.barrierLeft > 0 {
		s.barrierLeft--
		wait = true
	}
	b, ok := s.bookings[id]
	var cp models.Booking
	if ok {
		cp = *b
	}
	s.mu.Unlock()
	if wait {
		s.barrier.Done()
		s.barrier.Wait()
	}
	if !ok {
		return nil, types.ErrBookingNotFound
	}
	return &cp, nil
}

func (s *memStore) ListBookings(ctx context.Context, filters types.BookingQueryFilters) ([]models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Booking{}
	for _, b := range s.bookings {
		if filters.Status != "" && string(b.Status) != filters.Status {
			continue
		}
		if filters.Email != "" && !strings.EqualFold(b.GuestEmail, filters.Email) {
			continue
		}
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *memStore) TransitionStatus(ctx context.Context, id uuid.UUID, from, to types.BookingStatus) (bool, error) {
	if err := types.ValidateTransition(from, to); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok || b.Status != from {
		return false, nil
	}
	b.Status = to
	b.UpdatedAt = time.Now()
	return true, nil
}

func (s *memStore) AttachPaymentIntent(ctx context.Context, id uuid.UUID, paymentIntentID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.bookings {
		if b.PaymentIntent() == paymentIntentID {
			return false, nil
		}
	}
	b, ok := s.bookings[id]
	if !ok || b.Status != types.BOOKING_PENDING || b.HasPayment() {
		return false, nil
	}
	pi := paymentIntentID
	b.PaymentIntentID = &pi
	return true, nil
}

func (s *memStore) FindNewestUnpaidPending(ctx context.Context, email string) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var newest *models.Booking
	for _, b := range s.bookings {
		if !strings.EqualFold(b.GuestEmail, email) || b.Status != types.BOOKING_PENDING || b.HasPayment() {
			continue
		}
		if newest == nil || b.CreatedAt.After(newest.CreatedAt) {
			newest = b
		}
	}
	if newest == nil {
		return nil, types.ErrBookingNotFound
	}
	cp := *newest
	return &cp, nil
}

func (s *memStore) FindByPaymentIntent(ctx context.Context, paymentIntentID string) ([]models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Booking{}
	for _, b := range s.bookings {
		if b.PaymentIntent() == paymentIntentID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s *memStore) CancelByPaymentIntent(ctx context.Context, paymentIntentID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, b := range s.bookings {
		if b.PaymentIntent() == paymentIntentID && b.Status == types.BOOKING_PENDING {
			b.Status = types.BOOKING_CANCELLED
			n++
		}
	}
	return n, nil
}

func (s *memStore) DeleteBooking(ctx context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bookings[id]; !ok {
		return false, nil
	}
	delete(s.bookings, id)
	return true, nil
}

func (s *memStore) StalePendingAuthorizations(ctx context.Context, before time.Time) ([]models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Booking{}
	for _, b := range s.bookings {
		if b.Status == types.BOOKING_PENDING && b.HasPayment() && b.UpdatedAt.Before(before) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s *memStore) RecordTrail(ctx context.Context, entry *models.TrailLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trail = append(s.trail, *entry)
	return nil
}

func (s *memStore) ListTrail(ctx context.Context, filters types.TrailQueryFilters) ([]models.TrailLog, error) {
	return s.trailOf(filters.Type), nil
}

func (s *memStore) AdminEmails(ctx context.Context) ([]string, error) {
	return s.admins, nil
}
