package repositories

import (
	"context"
	"errors"
	"strings"
	"time"

	"hbs/src/models"
	"hbs/src/models/scopes"
	"hbs/src/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BookingRepository is the gorm-backed booking store. Every status change is a
// single conditional UPDATE, so concurrent writers race on the row and exactly
// one of them observes RowsAffected == 1.
type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) GetProgram(ctx context.Context, id uint) (*models.Program, error) {
	var program models.Program
	err := r.db.WithContext(ctx).Preload("Translations").Where("id = ?", id).First(&program).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.ErrProgramNotFound
	}
	if err != nil {
		return nil, err
	}
	return &program, nil
}

func (r *BookingRepository) GetProgramBySlug(ctx context.Context, slug string) (*models.Program, error) {
	var program models.Program
	err := r.db.WithContext(ctx).Preload("Translations").Where("slug = ? AND active = ?", slug, true).First(&program).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.ErrProgramNotFound
	}
	if err != nil {
		return nil, err
	}
	return &program, nil
}

func (r *BookingRepository) ListPrograms(ctx context.Context) ([]models.Program, error) {
	var programs []models.Program
	err := r.db.WithContext(ctx).Preload("Translations").Where("active = ?", true).Order("id").Find(&programs).Error
	return programs, err
}

func (r *BookingRepository) CreateBooking(ctx context.Context, booking *models.Booking) error {
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	if booking.Status == "" {
		booking.Status = types.BOOKING_PENDING
	}
	return r.db.WithContext(ctx).Omit("Program").Create(booking).Error
}

func (r *BookingRepository) GetBooking(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).Scopes(scopes.WithID(id)).First(&booking).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *BookingRepository) ListBookings(ctx context.Context, filters types.BookingQueryFilters) ([]models.Booking, error) {
	q := r.db.WithContext(ctx).Model(&models.Booking{})
	if filters.Status != "" {
		q = q.Scopes(scopes.WithStatus(types.BookingStatus(filters.Status)))
	}
	if filters.Email != "" {
		q = q.Scopes(scopes.WithEmail(filters.Email))
	}
	if filters.ProgramID != 0 {
		q = q.Where("program_id = ?", filters.ProgramID)
	}
	order := "created_at"
	if filters.OrderBy == "booking_date" {
		order = "booking_date"
	}
	var bookings []models.Booking
	err := q.Scopes(scopes.Paginate(filters.Limit, filters.Offset)).Order(order + " DESC").Find(&bookings).Error
	return bookings, err
}

// TransitionStatus moves the booking from the observed status to the target.
// It reports false without error when the row no longer has the observed status.
func (r *BookingRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to types.BookingStatus) (bool, error) {
	if err := types.ValidateTransition(from, to); err != nil {
		return false, err
	}
	result := r.db.WithContext(ctx).Model(&models.Booking{}).
		Scopes(scopes.WithID(id), scopes.WithStatus(from)).
		Update("status", to)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// AttachPaymentIntent sets the payment intent on a pending booking that has none.
// A payment intent already attached elsewhere is reported as not applied.
func (r *BookingRepository) AttachPaymentIntent(ctx context.Context, id uuid.UUID, paymentIntentID string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Booking{}).
		Scopes(scopes.WithID(id), scopes.WithPendingStatus, scopes.WithoutPaymentIntent).
		Update("payment_intent_id", paymentIntentID)
	if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
		return false, nil
	}
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *BookingRepository) FindNewestUnpaidPending(ctx context.Context, email string) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).
		Scopes(scopes.WithEmail(strings.TrimSpace(email)), scopes.WithPendingStatus, scopes.WithoutPaymentIntent).
		Order("created_at DESC").
		First(&booking).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *BookingRepository) FindByPaymentIntent(ctx context.Context, paymentIntentID string) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.WithContext(ctx).Scopes(scopes.WithPaymentIntent(paymentIntentID)).Find(&bookings).Error
	return bookings, err
}

// CancelByPaymentIntent cancels pending bookings only; confirmed ones are left for staff.
func (r *BookingRepository) CancelByPaymentIntent(ctx context.Context, paymentIntentID string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Booking{}).
		Scopes(scopes.WithPaymentIntent(paymentIntentID), scopes.WithPendingStatus).
		Update("status", types.BOOKING_CANCELLED)
	return result.RowsAffected, result.Error
}

func (r *BookingRepository) DeleteBooking(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Scopes(scopes.WithID(id)).Delete(&models.Booking{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// StalePendingAuthorizations lists pending bookings whose card hold was placed before the cutoff.
func (r *BookingRepository) StalePendingAuthorizations(ctx context.Context, before time.Time) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.WithContext(ctx).
		Scopes(scopes.WithPendingStatus).
		Where("payment_intent_id IS NOT NULL AND updated_at < ?", before).
		Order("updated_at").
		Find(&bookings).Error
	return bookings, err
}

func (r *BookingRepository) RecordTrail(ctx context.Context, entry *models.TrailLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *BookingRepository) ListTrail(ctx context.Context, filters types.TrailQueryFilters) ([]models.TrailLog, error) {
	q := r.db.WithContext(ctx).Model(&models.TrailLog{})
	if filters.Type != "" {
		q = q.Where("type = ?", filters.Type)
	}
	var entries []models.TrailLog
	err := q.Scopes(scopes.Paginate(filters.Limit, 0)).Order("created_at DESC").Find(&entries).Error
	return entries, err
}

func (r *BookingRepository) GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *BookingRepository) AdminEmails(ctx context.Context) ([]string, error) {
	var emails []string
	err := r.db.WithContext(ctx).Model(&models.Profile{}).
		Where("role = ?", models.ROLE_ADMIN).
		Pluck("email", &emails).Error
	return emails, err
}
