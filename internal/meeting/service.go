package meeting

import (
	"context"
	"errors"
	"net/url"
	"sort"
	"strings"
	"time"

	"mentorbook/internal/apperr"
	"mentorbook/internal/logger"
)

var (
	ErrInvalidLink   = apperr.New(apperr.KindValidation, "invalid meeting link")
	ErrLinkNotFound  = apperr.New(apperr.KindNotFound, "meeting link not found")
	ErrNotConfigured = apperr.New(apperr.KindMeetingNotConfigured, "connect a meeting platform before accepting bookings")
)

// platformRank orders the platforms Primary prefers; others sort after them
// by name.
var platformRank = map[string]int{
	PlatformGoogle: 0,
	PlatformZoom:   1,
}

// ValidateURL checks raw against the pattern expected for platform and
// returns the normalized platform id.
func ValidateURL(platform, raw string) (string, error) {
	platform = strings.ToLower(strings.TrimSpace(platform))
	if platform == "" {
		return "", apperr.Wrapf(ErrInvalidLink, "platform is required").WithDetail("field", "platform")
	}

	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || !u.IsAbs() || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", apperr.Wrapf(ErrInvalidLink, "%q is not an absolute http(s) URL", raw).WithDetail("field", "url")
	}

	host := strings.ToLower(u.Hostname())
	switch platform {
	case PlatformGoogle:
		if host != "meet.google.com" {
			return "", apperr.Wrapf(ErrInvalidLink, "google links must be on meet.google.com").WithDetail("field", "url")
		}
	case PlatformZoom:
		if host != "zoom.us" && !strings.HasSuffix(host, ".zoom.us") {
			return "", apperr.Wrapf(ErrInvalidLink, "zoom links must be on zoom.us").WithDetail("field", "url")
		}
	}
	return platform, nil
}

// Binder manages providers' meeting platform links.
type Binder struct {
	repo Repository
	now  func() time.Time
}

func NewBinder(repo Repository) *Binder {
	return &Binder{repo: repo, now: time.Now}
}

func (b *Binder) Connect(ctx context.Context, providerID, platform, rawURL string) (*Link, error) {
	if providerID == "" {
		return nil, apperr.Validation("provider_id", "is required")
	}
	platform, err := ValidateURL(platform, rawURL)
	if err != nil {
		return nil, err
	}

	now := b.now().UTC()
	link := &Link{
		ProviderID:  providerID,
		Platform:    platform,
		URL:         strings.TrimSpace(rawURL),
		Connected:   true,
		ConnectedAt: &now,
	}
	if err := b.repo.Upsert(ctx, link); err != nil {
		return nil, err
	}

	logger.Info("meeting link connected", "provider_id", providerID, "platform", platform)
	return link, nil
}

// Disconnect clears a link. Disconnecting an unknown link is a no-op.
func (b *Binder) Disconnect(ctx context.Context, providerID, platform string) error {
	platform = strings.ToLower(strings.TrimSpace(platform))
	err := b.repo.Disconnect(ctx, providerID, platform)
	if errors.Is(err, ErrLinkNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	logger.Info("meeting link disconnected", "provider_id", providerID, "platform", platform)
	return nil
}

func (b *Binder) List(ctx context.Context, providerID string) ([]Link, error) {
	return b.repo.ListByProvider(ctx, providerID)
}

func (b *Binder) HasAnyConnected(ctx context.Context, providerID string) (bool, error) {
	links, err := b.connected(ctx, providerID)
	if err != nil {
		return false, err
	}
	return len(links) > 0, nil
}

// Primary returns the link stamped onto accepted bookings: google first,
// then zoom, then other platforms by name.
func (b *Binder) Primary(ctx context.Context, providerID string) (Link, error) {
	links, err := b.connected(ctx, providerID)
	if err != nil {
		return Link{}, err
	}
	if len(links) == 0 {
		return Link{}, apperr.Wrapf(ErrNotConfigured, "provider %s has no connected meeting platform", providerID)
	}

	sort.SliceStable(links, func(i, j int) bool {
		ri, iKnown := platformRank[links[i].Platform]
		rj, jKnown := platformRank[links[j].Platform]
		switch {
		case iKnown && jKnown:
			return ri < rj
		case iKnown != jKnown:
			return iKnown
		default:
			return links[i].Platform < links[j].Platform
		}
	})
	return links[0], nil
}

func (b *Binder) connected(ctx context.Context, providerID string) ([]Link, error) {
	links, err := b.repo.ListByProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}
	out := links[:0]
	for _, l := range links {
		if l.Connected && l.URL != "" {
			out = append(out, l)
		}
	}
	return out, nil
}
