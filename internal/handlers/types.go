package handlers

import "time"

// CreateLinkRequest is the request body for creating a short URL.
type CreateLinkRequest struct {
	Body struct {
		URL     string `doc:"The URL to shorten"                      example:"https://example.com/very/long/path" json:"url"               minLength:"1"`
		Sponsor string `doc:"Optional sponsor shown with the link"    json:"sponsor,omitempty"`
		Limit   *int64 `doc:"Maximum redirections per window"         json:"limit,omitempty"                       minimum:"1"`
		WantQR  bool   `doc:"Return the QR code location of the link" json:"wantQr,omitempty"`
	}
}

// LinkBody describes a short URL in API responses.
type LinkBody struct {
	Hash     string `doc:"The short hash"               example:"5f1c2e9a0b3d"                        json:"hash"`
	ShortURL string `doc:"The full short URL"           example:"http://localhost:8888/5f1c2e9a0b3d"  json:"shortUrl"`
	Target   string `doc:"The destination URL"          example:"https://example.com/very/long/path" json:"target"`
	QR       string `doc:"QR code location, if requested" json:"qr,omitempty"`
}

// CreateLinkResponse is the response for a successfully created short URL.
type CreateLinkResponse struct {
	Headers struct {
		Location string `doc:"The short URL location" header:"Location"`
	}
	Body LinkBody
}

// RedirectRequest is the request for redirecting a short URL.
type RedirectRequest struct {
	Hash string `doc:"The short hash" example:"5f1c2e9a0b3d" path:"hash"`
}

// RedirectResponse is a redirect to the target URL.
type RedirectResponse struct {
	Status  int
	Headers struct {
		Location string `doc:"The target URL" header:"Location"`
	}
}

// InfoRequest is the request for the details of a short URL.
type InfoRequest struct {
	Hash string `doc:"The short hash" example:"5f1c2e9a0b3d" path:"hash"`
}

// InfoResponse carries the trust state of a short URL.
type InfoResponse struct {
	Body struct {
		LinkBody
		State            string    `doc:"Derived trust state" enum:"unvalidated,rejected-unsafe,rejected-unreachable,admitted" json:"state"`
		Safe             *bool     `doc:"Safety verdict, absent until checked"       json:"safe,omitempty"`
		Reachable        *bool     `doc:"Reachability verdict, absent until checked" json:"reachable,omitempty"`
		RedirectionLimit *int64    `doc:"Redirections allowed per window"            json:"redirectionLimit,omitempty"`
		Sponsor          string    `json:"sponsor,omitempty"`
		CreatedAt        time.Time `json:"createdAt"`
	}
}

// BulkRequest is a CSV document with one URL per row.
type BulkRequest struct {
	RawBody []byte `contentType:"text/csv"`
}

// BulkResponse echoes each row with its short URL or an error.
type BulkResponse struct {
	ContentType        string `header:"Content-Type"`
	ContentDisposition string `header:"Content-Disposition"`
	Body               []byte
}

// QRRequest identifies the short URL to encode.
type QRRequest struct {
	Hash string `doc:"Short URL hash" path:"hash"`
}

// QRResponse is a PNG image of the short URL.
type QRResponse struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}
