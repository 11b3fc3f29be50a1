package handlers

import (
	"context"
	"errors"

	"github.com/serroba/trusted-shortener/internal/shortener"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

const qrSize = 256

// QR renders the short URL of a known hash as a PNG. It does not consume
// redirections.
func (h *URLHandler) QR(ctx context.Context, req *QRRequest) (*QRResponse, error) {
	shortURL, _, err := h.gate.Info(ctx, shortener.Hash(req.Hash))
	if errors.Is(err, shortener.ErrRedirectionNotFound) {
		err = &shortener.RejectionError{Kind: shortener.ErrQrNotFound, Subject: req.Hash}
	}

	if err != nil {
		h.logFailure("qr lookup failed", err, zap.String("hash", req.Hash))

		return nil, toHTTPError(err, "failed to get url")
	}

	png, err := qrcode.Encode(h.shortURL(shortURL.Hash), qrcode.Medium, qrSize)
	if err != nil {
		h.logger.Error("qr encoding failed", zap.String("hash", req.Hash), zap.Error(err))

		return nil, toHTTPError(err, "failed to render qr code")
	}

	return &QRResponse{ContentType: "image/png", Body: png}, nil
}
