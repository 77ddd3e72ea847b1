package shortener

import (
	"fmt"
	"strings"
	"time"
)

// Code represents a short URL code.
type Code string

// URLRecord pairs a long URL with its short code. Once created neither side changes.
type URLRecord struct {
	Code      Code      `json:"urlCode"`
	LongURL   string    `json:"longUrl"`
	ShortURL  string    `json:"shortUrl"`
	CreatedAt time.Time `json:"createdAt"`
}

// ComposeShortURL joins the public base URL and a code.
func ComposeShortURL(baseURL string, code Code) string {
	return fmt.Sprintf("%s/%s", strings.TrimSuffix(baseURL, "/"), code)
}
