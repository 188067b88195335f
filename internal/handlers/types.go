package handlers

import "github.com/serroba/fuselink/internal/policy"

// CreateLinkRequest is the request body for creating a short link.
type CreateLinkRequest struct {
	Body struct {
		URL         string        `doc:"The URL to shorten"                                   example:"https://example.com/very/long/path" json:"url"                   minLength:"1"`
		CustomAlias string        `doc:"Three emoji to use instead of a generated identifier" example:"🔥🚀🌈"                                json:"customAlias,omitempty"`
		Destruction policy.Policy `doc:"When the link destroys itself"                        json:"destruction,omitempty"`
	}
}

// CreateLinkResponse is the response for a successfully created short link.
type CreateLinkResponse struct {
	Location string `doc:"The short URL location" header:"Location"`
	Body     struct {
		ID       string `doc:"The short identifier" example:"🔥🚀🌈"                                     json:"id"`
		ShortURL string `doc:"The full short URL"   example:"http://localhost:8888/%F0%9F%94%A5%F0%9F%9A%80%F0%9F%8C%88" json:"shortUrl"`
	}
}

// LinkRequest addresses a short link by its identifier.
type LinkRequest struct {
	ID string `doc:"The short identifier" example:"🔥🚀🌈" path:"id"`
}

// RedirectResponse sends the client on to the destination.
type RedirectResponse struct {
	Status       int
	Location     string `header:"Location"`
	CacheControl string `header:"Cache-Control"`
}

// ImageResponse carries a rendered PNG.
type ImageResponse struct {
	ContentType  string `header:"Content-Type"`
	CacheControl string `header:"Cache-Control"`
	Body         []byte
}
