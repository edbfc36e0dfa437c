package catalog

import (
	"math"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Role tags a provider. Mentors and alumni are the same entity.
type Role string

const (
	RoleMentor Role = "mentor"
	RoleAlumni Role = "alumni"
)

type Provider struct {
	ID          string          `db:"id" json:"id" validate:"required"`
	Name        string          `db:"name" json:"name" validate:"required"`
	Role        Role            `db:"role" json:"role" validate:"required,oneof=mentor alumni"`
	Company     string          `db:"company" json:"company"`
	Title       string          `db:"title" json:"title"`
	Location    string          `db:"location" json:"location"`
	Institution string          `db:"institution" json:"institution"`
	BatchYear   string          `db:"batch_year" json:"batch_year"`
	Languages   pq.StringArray  `db:"languages" json:"languages"`
	Expertise   pq.StringArray  `db:"expertise" json:"expertise"`
	Rating      float64         `db:"rating" json:"rating" validate:"gte=0,lte=5"`
	ReviewCount int             `db:"review_count" json:"review_count" validate:"gte=0"`
	Sessions    int             `db:"sessions" json:"sessions" validate:"gte=0"`
	BaseRate    decimal.Decimal `db:"base_rate" json:"base_rate"`
	Active      bool            `db:"active" json:"active"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

type Service struct {
	ID              string          `db:"id" json:"id" validate:"required"`
	ProviderID      string          `db:"provider_id" json:"provider_id" validate:"required"`
	Kind            Kind            `db:"kind" json:"kind" validate:"required"`
	Title           string          `db:"title" json:"title" validate:"required,max=200"`
	DurationMinutes int             `db:"duration_minutes" json:"duration_minutes" validate:"gte=0"`
	Price           decimal.Decimal `db:"price" json:"price"`
	Description     string          `db:"description" json:"description,omitempty" validate:"max=2000"`
	// Locked is set once a non-cancelled booking references the service.
	Locked bool `db:"locked" json:"locked"`
	// SupersededBy names the version that replaced this one after an edit
	// while locked. Superseded services keep serving existing bookings but
	// are neither listed nor bookable.
	SupersededBy string    `db:"superseded_by" json:"superseded_by,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

func (s *Service) Retired() bool {
	return s.SupersededBy != ""
}

// foldRating adds one rating to an average over count reviews, rounded to
// one decimal place.
func foldRating(avg float64, count, rating int) float64 {
	total := avg*float64(count) + float64(rating)
	return math.Round(total/float64(count+1)*10) / 10
}

// Review is a mentee's rating of one completed session. A booking is
// reviewed at most once.
type Review struct {
	BookingID  string    `db:"booking_id" json:"booking_id"`
	ProviderID string    `db:"provider_id" json:"provider_id"`
	MenteeID   string    `db:"mentee_id" json:"mentee_id"`
	Rating     int       `db:"rating" json:"rating"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// ProviderRecord is the bulk ingestion unit: a provider and its services.
type ProviderRecord struct {
	Provider Provider  `json:"provider"`
	Services []Service `json:"services"`
}

// Filter narrows ListProviders. The zero value lists everything.
type Filter struct {
	ActiveOnly bool
	IDs        []string
}

func (f Filter) match(p *Provider) bool {
	if f.ActiveOnly && !p.Active {
		return false
	}
	if len(f.IDs) == 0 {
		return true
	}
	for _, id := range f.IDs {
		if id == p.ID {
			return true
		}
	}
	return false
}

type UpsertServiceRequest struct {
	Kind            string          `json:"kind" binding:"required"`
	Title           string          `json:"title" binding:"required"`
	DurationMinutes int             `json:"duration_minutes" binding:"gte=0"`
	Price           decimal.Decimal `json:"price"`
	Description     string          `json:"description"`
}

type SaveProfileRequest struct {
	Name        string          `json:"name" binding:"required"`
	Role        string          `json:"role" binding:"required"`
	Company     string          `json:"company"`
	Title       string          `json:"title"`
	Location    string          `json:"location"`
	Institution string          `json:"institution"`
	BatchYear   string          `json:"batch_year"`
	Languages   []string        `json:"languages"`
	Expertise   []string        `json:"expertise"`
	BaseRate    decimal.Decimal `json:"base_rate"`
}

type ReviewRequest struct {
	BookingID string `json:"booking_id" binding:"required"`
	Rating    int    `json:"rating" binding:"required"`
}
