package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// RegisterRoutes registers all URL shortener routes.
func RegisterRoutes(api huma.API, urlHandler *URLHandler) {
	UseErrorMessages()

	huma.Register(api, huma.Operation{
		OperationID:   "create-link",
		Method:        http.MethodPost,
		Path:          "/api/link",
		Summary:       "Create short URL",
		Description:   "Creates a short URL. The target is validated in the background before redirects are served.",
		Tags:          []string{"Links"},
		DefaultStatus: http.StatusCreated,
	}, urlHandler.CreateLink)

	huma.Register(api, huma.Operation{
		OperationID: "link-info",
		Method:      http.MethodGet,
		Path:        "/api/link/{hash}",
		Summary:     "Get short URL details",
		Description: "Returns the target and trust state of a short URL without consuming redirections.",
		Tags:        []string{"Links"},
	}, urlHandler.Info)

	huma.Register(api, huma.Operation{
		OperationID:   "bulk-create",
		Method:        http.MethodPost,
		Path:          "/api/bulk",
		Summary:       "Create short URLs from CSV",
		Description:   "Shortens one URL per CSV row and returns the rows with their short URLs.",
		Tags:          []string{"Links"},
		DefaultStatus: http.StatusCreated,
	}, urlHandler.BulkCreate)

	huma.Register(api, huma.Operation{
		OperationID: "qr-code",
		Method:      http.MethodGet,
		Path:        "/{hash}/qr",
		Summary:     "Get QR code",
		Description: "Returns a PNG QR code of the short URL.",
		Tags:        []string{"Links"},
		Errors:      []int{http.StatusNotFound},
		Responses: map[string]*huma.Response{
			"200": {
				Description: "PNG image",
				Content:     map[string]*huma.MediaType{"image/png": {}},
			},
		},
	}, urlHandler.QR)

	huma.Register(api, huma.Operation{
		OperationID: "redirect",
		Method:      http.MethodGet,
		Path:        "/{hash}",
		Summary:     "Redirect to target URL",
		Description: "Redirects to the target once it is validated and within its redirection quota.",
		Tags:        []string{"Links"},
		Errors: []int{
			http.StatusBadRequest,
			http.StatusForbidden,
			http.StatusNotFound,
			http.StatusTooManyRequests,
		},
	}, urlHandler.Redirect)
}
