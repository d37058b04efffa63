// Package oracle provides the local randomness fulfiller: a background loop
// that stands in for the external randomness source in single-node and
// development deployments. It polls for pending creation requests, draws a
// word from the operating system's entropy pool, and feeds it back through
// the same fulfillment path the external source would use.
package oracle

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"log/slog"
	"time"

	"curio/internal/mint/models"
	registrymodels "curio/internal/registry/models"
	id "curio/pkg/domain"
)

// Minter is the slice of the minting unit the fulfiller drives.
type Minter interface {
	ListPending(ctx context.Context, limit int) ([]*models.PendingRequest, error)
	Fulfill(ctx context.Context, token id.RequestToken, word uint64) (*registrymodels.Asset, error)
}

const pollBatch = 32

type Fulfiller struct {
	minter   Minter
	interval time.Duration
	logger   *slog.Logger
}

func NewFulfiller(minter Minter, interval time.Duration, logger *slog.Logger) *Fulfiller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fulfiller{minter: minter, interval: interval, logger: logger}
}

// Run polls until the context is canceled. Fulfillment failures are logged
// and retried on the next tick; a request that was fulfilled concurrently is
// simply gone from the next poll.
func (f *Fulfiller) Run(ctx context.Context) error {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	f.logger.InfoContext(ctx, "local randomness fulfiller started", "interval", f.interval)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			f.sweep(ctx)
		}
	}
}

func (f *Fulfiller) sweep(ctx context.Context) {
	pending, err := f.minter.ListPending(ctx, pollBatch)
	if err != nil {
		f.logger.ErrorContext(ctx, "failed to list pending requests", "error", err)
		return
	}

	for _, req := range pending {
		word, err := randomWord()
		if err != nil {
			f.logger.ErrorContext(ctx, "failed to draw random word", "error", err)
			return
		}
		asset, err := f.minter.Fulfill(ctx, req.Token, word)
		if err != nil {
			f.logger.WarnContext(ctx, "fulfillment failed",
				"token", req.Token,
				"error", err,
			)
			continue
		}
		f.logger.InfoContext(ctx, "creation request fulfilled",
			"token", req.Token,
			"asset", asset.ID,
			"holder", asset.Holder,
		)
	}
}

func randomWord() (uint64, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, fmt.Errorf("read entropy: %w", err)
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}
