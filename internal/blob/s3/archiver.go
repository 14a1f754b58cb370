package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/quantfold/dexarb/internal/domain"
)

// archiveBatchSize pages trades out of the store so one oversized month
// cannot pin the whole table in memory.
const archiveBatchSize = 5000

// TradeArchiver implements domain.Archiver: aged trade records are
// serialized to JSONL, uploaded to object storage partitioned by month,
// and then deleted from the primary store.
type TradeArchiver struct {
	writer domain.BlobWriter
	trades domain.TradeStore
	logger *slog.Logger
}

// NewTradeArchiver creates a TradeArchiver.
func NewTradeArchiver(writer domain.BlobWriter, trades domain.TradeStore, logger *slog.Logger) *TradeArchiver {
	return &TradeArchiver{
		writer: writer,
		trades: trades,
		logger: logger.With(slog.String("component", "archiver")),
	}
}

// ArchiveTrades pages the oldest trades before the cutoff out of the
// store: each batch is uploaded and, only once the upload succeeds,
// deleted. A failed run leaves the unarchived remainder untouched.
func (a *TradeArchiver) ArchiveTrades(ctx context.Context, before time.Time) (int64, error) {
	var archived int64
	for {
		batch, err := a.trades.ListBefore(ctx, before, archiveBatchSize)
		if err != nil {
			return archived, fmt.Errorf("s3blob: archive trades query: %w", err)
		}
		if len(batch) == 0 {
			return archived, nil
		}

		buf, err := marshalJSONL(batch)
		if err != nil {
			return archived, fmt.Errorf("s3blob: archive trades marshal: %w", err)
		}

		newest := batch[len(batch)-1].DispatchedAt
		path := archivePath("trades", batch[0].DispatchedAt, newest)
		if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
			return archived, fmt.Errorf("s3blob: archive trades upload: %w", err)
		}

		deleted, err := a.trades.DeleteBefore(ctx, newest.Add(time.Nanosecond))
		if err != nil {
			return archived, fmt.Errorf("s3blob: archive trades delete: %w", err)
		}
		archived += int64(len(batch))

		a.logger.InfoContext(ctx, "s3blob: trade batch archived",
			slog.String("path", path),
			slog.Int("uploaded", len(batch)),
			slog.Int64("deleted", deleted),
		)

		if len(batch) < archiveBatchSize {
			return archived, nil
		}
	}
}

// archivePath builds the object key, partitioned by year-month with the
// batch's time range in the name so successive batches never collide.
//
//	archive/trades/2026-08/20260801T000102-20260814T231102.jsonl
func archivePath(kind string, oldest, newest time.Time) string {
	const stamp = "20060102T150405"
	return fmt.Sprintf("archive/%s/%s/%s-%s.jsonl",
		kind,
		newest.UTC().Format("2006-01"),
		oldest.UTC().Format(stamp),
		newest.UTC().Format(stamp),
	)
}

// marshalJSONL serialises records as newline-delimited JSON.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

// Compile-time interface check.
var _ domain.Archiver = (*TradeArchiver)(nil)
