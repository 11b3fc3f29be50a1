package analytics

import "time"

// Topic names for analytics events.
const (
	TopicLinkCreated = "analytics.link_created"
	TopicLinkClicked = "analytics.link_clicked"
)

// LinkCreatedEvent represents an event emitted when a URL is shortened.
type LinkCreatedEvent struct {
	Hash             string    `json:"hash"`
	Target           string    `json:"target"`
	Sponsor          string    `json:"sponsor,omitempty"`
	RedirectionLimit *int64    `json:"redirectionLimit,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	ClientIP         string    `json:"clientIp"`
	UserAgent        string    `json:"userAgent"`
}

// ClickEvent represents a redirect served to a visitor.
type ClickEvent struct {
	Hash      string    `json:"hash"`
	ClickedAt time.Time `json:"clickedAt"`
	ClientIP  string    `json:"clientIp"`
	UserAgent string    `json:"userAgent"`
	Referrer  string    `json:"referrer,omitempty"`
}
