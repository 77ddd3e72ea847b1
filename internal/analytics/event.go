package analytics

import "time"

const (
	// TopicURLCreated carries URLCreatedEvent.
	TopicURLCreated = "url.created"
	// TopicURLAccessed carries URLAccessedEvent.
	TopicURLAccessed = "url.accessed"
)

// URLCreatedEvent is emitted when a long URL is shortened for the first time.
type URLCreatedEvent struct {
	Code      string    `json:"code"`
	LongURL   string    `json:"longUrl"`
	CreatedAt time.Time `json:"createdAt"`
	ClientIP  string    `json:"clientIp"`
	UserAgent string    `json:"userAgent"`
}

// URLAccessedEvent is emitted on every successful redirect.
type URLAccessedEvent struct {
	Code       string    `json:"code"`
	AccessedAt time.Time `json:"accessedAt"`
	ClientIP   string    `json:"clientIp"`
	UserAgent  string    `json:"userAgent"`
	Referrer   string    `json:"referrer"`
}
