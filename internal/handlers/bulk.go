package handlers

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/trusted-shortener/internal/shortener"
	"go.uber.org/zap"
)

const bulkFilename = "shortURLs.csv"

// BulkCreate shortens every URL of a CSV document. The first column of each
// row is the URL; the row is echoed back with the short URL appended, or with
// "error" and the reason when that URL could not be shortened.
func (h *URLHandler) BulkCreate(ctx context.Context, req *BulkRequest) (*BulkResponse, error) {
	reader := csv.NewReader(bytes.NewReader(req.RawBody))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	meta := RequestMetaFromContext(ctx)

	var out bytes.Buffer

	writer := csv.NewWriter(&out)
	rows := 0

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, huma.Error400BadRequest("malformed csv", err)
		}

		raw := strings.TrimSpace(record[0])
		if raw == "" {
			continue
		}

		rows++

		shortURL, err := h.creator.Create(ctx, raw, shortener.CreateOptions{IP: meta.ClientIP})
		if err != nil {
			h.logFailure("bulk create failed", err, zap.String("url", raw))

			if writeErr := writer.Write(append(record, "error", bulkReason(err))); writeErr != nil {
				return nil, huma.Error500InternalServerError("failed to write csv")
			}

			continue
		}

		h.publishLinkCreated(ctx, shortURL, meta)

		if err = writer.Write(append(record, h.shortURL(shortURL.Hash))); err != nil {
			return nil, huma.Error500InternalServerError("failed to write csv")
		}
	}

	if rows == 0 {
		return nil, huma.Error400BadRequest("no urls found in csv")
	}

	writer.Flush()

	if err := writer.Error(); err != nil {
		return nil, huma.Error500InternalServerError("failed to write csv")
	}

	return &BulkResponse{
		ContentType:        "text/csv",
		ContentDisposition: "attachment; filename=" + bulkFilename,
		Body:               out.Bytes(),
	}, nil
}

func bulkReason(err error) string {
	if rej, ok := asRejection(err); ok {
		return rej.Error()
	}

	return "internal error"
}
