package storage

import (
	"context"
	"errors"

	"swapScope/internal/model"
)

// Journal records quotes and pool snapshots produced by the adapter.
type Journal interface {
	PutQuote(ctx context.Context, record model.QuoteRecord) error
	PutPoolSnapshot(ctx context.Context, record model.PoolSnapshotRecord) error
}

// Discard is a Journal that keeps nothing.
type Discard struct{}

func (Discard) PutQuote(context.Context, model.QuoteRecord) error               { return nil }
func (Discard) PutPoolSnapshot(context.Context, model.PoolSnapshotRecord) error { return nil }

// Tee writes every record to all journals and joins their errors.
type Tee []Journal

func (t Tee) PutQuote(ctx context.Context, record model.QuoteRecord) error {
	var errs []error
	for _, j := range t {
		if err := j.PutQuote(ctx, record); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t Tee) PutPoolSnapshot(ctx context.Context, record model.PoolSnapshotRecord) error {
	var errs []error
	for _, j := range t {
		if err := j.PutPoolSnapshot(ctx, record); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
