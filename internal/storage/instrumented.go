package storage

import (
	"context"
	"io"

	"github.com/cunhadas/cadastro-api/internal/observability"
)

// InstrumentedUploader decorates an Uploader with storage metrics.
type InstrumentedUploader struct {
	next Uploader
	prom *observability.Prom
}

func NewInstrumentedUploader(next Uploader, prom *observability.Prom) *InstrumentedUploader {
	return &InstrumentedUploader{next: next, prom: prom}
}

func (u *InstrumentedUploader) Upload(ctx context.Context, filename, contentType string, body io.Reader) (string, error) {
	var url string

	err := u.prom.ObserveUpload(func() error {
		var err error
		url, err = u.next.Upload(ctx, filename, contentType, body)
		return err
	})

	return url, err
}
