package meeting

import "time"

const (
	PlatformGoogle = "google"
	PlatformZoom   = "zoom"
)

// Link is one provider's binding to a video platform.
type Link struct {
	ProviderID  string     `db:"provider_id" json:"provider_id"`
	Platform    string     `db:"platform" json:"platform"`
	URL         string     `db:"url" json:"url"`
	Connected   bool       `db:"connected" json:"connected"`
	ConnectedAt *time.Time `db:"connected_at" json:"connected_at,omitempty"`
}

type ConnectRequest struct {
	URL string `json:"url" binding:"required"`
}
