package handlers

// ShortenRequest is the request for creating a short URL.
type ShortenRequest struct {
	Body struct {
		LongURL string `doc:"The URL to shorten" example:"https://example.com/very/long/path" json:"longUrl" required:"false"`
	}
}

// URLData is the public view of a shortened URL.
type URLData struct {
	LongURL  string `doc:"The original URL"   example:"https://example.com/very/long/path" json:"longUrl"`
	ShortURL string `doc:"The full short URL" example:"http://localhost:8888/url/abc123"  json:"shortUrl"`
	URLCode  string `doc:"The short code"     example:"abc123"                             json:"urlCode"`
}

// ShortenResponse is the response for a shortened URL.
type ShortenResponse struct {
	Location string `doc:"The short URL location" header:"Location"`
	Body struct {
		Status bool    `json:"status"`
		Data   URLData `json:"data"`
	}
}

// RedirectRequest is the request for redirecting a short URL.
type RedirectRequest struct {
	URLCode string `doc:"The short code" example:"abc123" path:"urlCode"`
}

// RedirectResponse carries the redirect status and target.
type RedirectResponse struct {
	Status   int
	Location string `header:"Location"`
}
