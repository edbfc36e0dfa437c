package catalog

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"mentorbook/internal/apperr"
	"mentorbook/internal/logger"

	"github.com/google/uuid"
)

var (
	ErrProviderNotFound = apperr.New(apperr.KindNotFound, "provider not found")
	ErrServiceNotFound  = apperr.New(apperr.KindNotFound, "service not found")
	ErrNotOwner         = apperr.New(apperr.KindForbidden, "service belongs to another provider")
	ErrInvalidRating    = apperr.New(apperr.KindValidation, "rating must be between 1 and 5")
	ErrServiceRetired   = apperr.New(apperr.KindValidation, "service has been replaced by a newer version")
	ErrAlreadyReviewed  = apperr.New(apperr.KindValidation, "booking has already been reviewed")
)

// SessionVerifier confirms that menteeID attended a completed session with
// providerID under bookingID.
type SessionVerifier interface {
	VerifySession(ctx context.Context, bookingID, menteeID, providerID string) error
}

// RetiredService reports an attempt to use a superseded service version.
func RetiredService(svc *Service) error {
	return apperr.Wrapf(ErrServiceRetired, "service %s has been replaced by %s", svc.ID, svc.SupersededBy).
		WithDetail("field", "service_id").
		WithDetail("superseded_by", svc.SupersededBy)
}

// Store is the catalog facade used by search, booking and the HTTP layer.
// Every mutation bumps Version so cached search results can be invalidated.
type Store struct {
	repo    Repository
	version atomic.Uint64
	now     func() time.Time

	// serviceMu serialises service edits so one locked version is
	// superseded at most once.
	serviceMu sync.Mutex
}

func NewStore(repo Repository) *Store {
	return &Store{repo: repo, now: time.Now}
}

// Version changes after every catalog mutation made through this Store.
func (s *Store) Version() uint64 {
	return s.version.Load()
}

func (s *Store) bump() {
	s.version.Add(1)
}

func (s *Store) ListProviders(ctx context.Context, f Filter) ([]Provider, error) {
	return s.repo.ListProviders(ctx, f)
}

func (s *Store) GetProvider(ctx context.Context, id string) (*Provider, error) {
	return s.repo.GetProvider(ctx, id)
}

func (s *Store) GetService(ctx context.Context, id string) (*Service, error) {
	return s.repo.GetService(ctx, id)
}

func (s *Store) ListServices(ctx context.Context, providerID string) ([]Service, error) {
	if _, err := s.repo.GetProvider(ctx, providerID); err != nil {
		return nil, err
	}
	return s.repo.ListServices(ctx, providerID)
}

// SaveProvider creates or replaces a provider after onboarding.
func (s *Store) SaveProvider(ctx context.Context, p Provider) (*Provider, error) {
	if err := ValidateProvider(&p); err != nil {
		return nil, err
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now().UTC()
	}
	if err := s.repo.SaveProvider(ctx, &p); err != nil {
		return nil, err
	}
	s.bump()
	return &p, nil
}

// UpsertService creates or edits a service owned by providerID. Services
// already referenced by a booking are never edited in place: the edit is
// stored as a new service and the old version is retired, so existing
// bookings keep their terms and new bookings get the edited ones.
func (s *Store) UpsertService(ctx context.Context, providerID string, svc Service) (*Service, error) {
	if _, err := s.repo.GetProvider(ctx, providerID); err != nil {
		return nil, err
	}

	s.serviceMu.Lock()
	defer s.serviceMu.Unlock()

	if svc.ID == "" {
		svc.ID = uuid.NewString()
	}
	svc.ProviderID = providerID

	var supersedes string
	existing, err := s.repo.GetService(ctx, svc.ID)
	switch {
	case err == nil:
		if existing.ProviderID != providerID {
			return nil, ErrNotOwner
		}
		if existing.Retired() {
			return nil, RetiredService(existing)
		}
		if existing.Locked {
			supersedes = existing.ID
			svc.ID = uuid.NewString()
			svc.CreatedAt = time.Time{}
		} else {
			svc.CreatedAt = existing.CreatedAt
		}
	case apperr.Is(err, apperr.KindNotFound):
	default:
		return nil, err
	}

	svc.Locked = false
	svc.SupersededBy = ""
	if svc.CreatedAt.IsZero() {
		svc.CreatedAt = s.now().UTC()
	}
	if err := ValidateService(&svc); err != nil {
		return nil, err
	}
	if err := s.repo.SaveService(ctx, &svc); err != nil {
		return nil, err
	}
	if supersedes != "" {
		if err := s.repo.RetireService(ctx, supersedes, svc.ID); err != nil {
			return nil, err
		}
		logger.Info("service locked by bookings, edit stored as new version",
			"service_id", supersedes, "new_service_id", svc.ID, "provider_id", providerID)
	}
	s.bump()
	return &svc, nil
}

// LockService marks a service as referenced by a live booking.
func (s *Store) LockService(ctx context.Context, id string) error {
	if err := s.repo.LockService(ctx, id); err != nil {
		return err
	}
	s.bump()
	return nil
}

// Deactivate hides a provider from search. Providers are never deleted.
func (s *Store) Deactivate(ctx context.Context, id string) error {
	if err := s.repo.SetActive(ctx, id, false); err != nil {
		return err
	}
	s.bump()
	return nil
}

// RecordReview folds one rating for a completed session into the
// provider's aggregates. sessions verifies that the mentee attended
// bookingID with the provider; each booking is reviewed once.
func (s *Store) RecordReview(ctx context.Context, sessions SessionVerifier, providerID, bookingID, menteeID string, rating int) (*Provider, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}
	if _, err := s.repo.GetProvider(ctx, providerID); err != nil {
		return nil, err
	}
	if err := sessions.VerifySession(ctx, bookingID, menteeID, providerID); err != nil {
		return nil, err
	}

	p, err := s.repo.RecordReview(ctx, &Review{
		BookingID:  bookingID,
		ProviderID: providerID,
		MenteeID:   menteeID,
		Rating:     rating,
		CreatedAt:  s.now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	s.bump()
	return p, nil
}

// Load bulk-ingests providers and their services in order. Ingestion is
// insert-only: a provider that already exists is skipped with its services,
// so reloading the same records leaves edits, deactivations and aggregates
// alone. Validation failures abort the load at the offending record.
func (s *Store) Load(ctx context.Context, records []ProviderRecord) error {
	loaded, skipped := 0, 0
	for _, rec := range records {
		_, err := s.repo.GetProvider(ctx, rec.Provider.ID)
		switch {
		case err == nil:
			skipped++
			continue
		case !apperr.Is(err, apperr.KindNotFound):
			return err
		}

		p, err := s.SaveProvider(ctx, rec.Provider)
		if err != nil {
			return apperr.Wrapf(err, "provider %q: %v", rec.Provider.ID, err)
		}
		for _, svc := range rec.Services {
			if _, err := s.UpsertService(ctx, p.ID, svc); err != nil {
				return apperr.Wrapf(err, "service %q of provider %q: %v", svc.ID, p.ID, err)
			}
		}
		loaded++
	}
	logger.Info("catalog loaded", "providers", loaded, "skipped", skipped)
	return nil
}
