package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/serroba/trusted-shortener/internal/analytics"
	"github.com/serroba/trusted-shortener/internal/messaging"
	"github.com/serroba/trusted-shortener/internal/shortener"
	"go.uber.org/zap"
)

// URLHandler handles URL shortening operations.
type URLHandler struct {
	creator        *shortener.Creator
	gate           *shortener.Gate
	baseURL        string
	publishCreated messaging.Publish[analytics.LinkCreatedEvent]
	publishClick   messaging.Publish[analytics.ClickEvent]
	logger         *zap.Logger
}

// NewURLHandler creates a new URL handler.
func NewURLHandler(
	creator *shortener.Creator,
	gate *shortener.Gate,
	baseURL string,
	publishCreated messaging.Publish[analytics.LinkCreatedEvent],
	publishClick messaging.Publish[analytics.ClickEvent],
	logger *zap.Logger,
) *URLHandler {
	return &URLHandler{
		creator:        creator,
		gate:           gate,
		baseURL:        baseURL,
		publishCreated: publishCreated,
		publishClick:   publishClick,
		logger:         logger,
	}
}

func (h *URLHandler) shortURL(hash shortener.Hash) string {
	return fmt.Sprintf("%s/%s", h.baseURL, hash)
}

func (h *URLHandler) linkBody(s *shortener.ShortURL, wantQR bool) LinkBody {
	body := LinkBody{
		Hash:     string(s.Hash),
		ShortURL: h.shortURL(s.Hash),
		Target:   s.Target,
	}

	if wantQR {
		body.QR = body.ShortURL + "/qr"
	}

	return body
}

func (h *URLHandler) CreateLink(ctx context.Context, req *CreateLinkRequest) (*CreateLinkResponse, error) {
	meta := RequestMetaFromContext(ctx)

	shortURL, err := h.creator.Create(ctx, req.Body.URL, shortener.CreateOptions{
		Limit:   req.Body.Limit,
		IP:      meta.ClientIP,
		Sponsor: req.Body.Sponsor,
	})
	if err != nil {
		h.logFailure("create link failed", err, zap.String("url", req.Body.URL))

		return nil, toHTTPError(err, "failed to save url")
	}

	h.publishLinkCreated(ctx, shortURL, meta)

	resp := &CreateLinkResponse{Body: h.linkBody(shortURL, req.Body.WantQR)}
	resp.Headers.Location = resp.Body.ShortURL

	return resp, nil
}

func (h *URLHandler) Redirect(ctx context.Context, req *RedirectRequest) (*RedirectResponse, error) {
	target, err := h.gate.Decide(ctx, shortener.Hash(req.Hash))
	if err != nil {
		h.logFailure("redirect failed", err, zap.String("hash", req.Hash))

		return nil, toHTTPError(err, "failed to get url")
	}

	meta := RequestMetaFromContext(ctx)
	event := &analytics.ClickEvent{
		Hash:      req.Hash,
		ClickedAt: time.Now(),
		ClientIP:  meta.ClientIP,
		UserAgent: meta.UserAgent,
		Referrer:  meta.Referrer,
	}

	if err = h.publishClick(ctx, event); err != nil {
		h.logger.Error("failed to publish click event",
			zap.String("hash", event.Hash),
			zap.Error(err),
		)
	}

	resp := &RedirectResponse{
		Status: http.StatusTemporaryRedirect,
	}
	resp.Headers.Location = target

	return resp, nil
}

func (h *URLHandler) Info(ctx context.Context, req *InfoRequest) (*InfoResponse, error) {
	shortURL, state, err := h.gate.Info(ctx, shortener.Hash(req.Hash))
	if err != nil {
		h.logFailure("link info failed", err, zap.String("hash", req.Hash))

		return nil, toHTTPError(err, "failed to get url")
	}

	resp := &InfoResponse{}
	resp.Body.LinkBody = h.linkBody(shortURL, false)
	resp.Body.State = string(state)
	resp.Body.Safe = shortURL.Properties.Safe
	resp.Body.Reachable = shortURL.Properties.Reachable
	resp.Body.RedirectionLimit = shortURL.Properties.RedirectionLimit
	resp.Body.Sponsor = shortURL.Properties.Sponsor
	resp.Body.CreatedAt = shortURL.CreatedAt

	return resp, nil
}

func (h *URLHandler) publishLinkCreated(ctx context.Context, s *shortener.ShortURL, meta RequestMeta) {
	event := &analytics.LinkCreatedEvent{
		Hash:             string(s.Hash),
		Target:           s.Target,
		Sponsor:          s.Properties.Sponsor,
		RedirectionLimit: s.Properties.RedirectionLimit,
		CreatedAt:        s.CreatedAt,
		ClientIP:         meta.ClientIP,
		UserAgent:        meta.UserAgent,
	}

	if err := h.publishCreated(ctx, event); err != nil {
		h.logger.Error("failed to publish analytics event",
			zap.String("hash", event.Hash),
			zap.Error(err),
		)
	}
}

// logFailure logs errors that are not typed rejections. Rejections are
// expected outcomes and are logged by the gate.
func (h *URLHandler) logFailure(msg string, err error, fields ...zap.Field) {
	if _, ok := asRejection(err); ok {
		return
	}

	h.logger.Error(msg, append(fields, zap.Error(err))...)
}
