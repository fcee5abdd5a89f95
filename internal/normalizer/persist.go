package normalizer

import (
	"context"
	"fmt"
	"strconv"

	"github.com/pfrederiksen/ade-events/internal/columnar"
	"github.com/pfrederiksen/ade-events/internal/event"
	"github.com/pfrederiksen/ade-events/internal/job"
	"github.com/pfrederiksen/ade-events/internal/logger"
	"github.com/pfrederiksen/ade-events/internal/storage"
)

// PartitionResult describes one published edition partition
type PartitionResult struct {
	Edition string `json:"edition"`
	Key     string `json:"key"`
	Rows    int    `json:"rows"`
	Bytes   int    `json:"bytes"`
}

type encodedPartition struct {
	PartitionResult
	data []byte
}

// Persist replaces the clean stage with records, one Parquet object per
// edition. Every partition is encoded before the first write. The success
// marker is removed while partitions are replaced, objects this run did not
// write are then deleted, and the marker is written last.
func Persist(ctx context.Context, jc *job.Context, records []event.CleanEventRecord) ([]PartitionResult, error) {
	parts := columnar.Partition(records)

	encoded := make([]encodedPartition, 0, len(parts))
	for _, part := range parts {
		data, err := columnar.Encode(part.Records)
		if err != nil {
			return nil, fmt.Errorf("encoding edition %s: %w", editionLabel(part.Edition), err)
		}
		encoded = append(encoded, encodedPartition{
			PartitionResult: PartitionResult{
				Edition: editionLabel(part.Edition),
				Key:     jc.Keys.PartitionKey(part.Edition),
				Rows:    len(part.Records),
				Bytes:   len(data),
			},
			data: data,
		})
	}

	if err := jc.Store.Delete(ctx, jc.Keys.SuccessKey()); err != nil {
		return nil, fmt.Errorf("clearing success marker: %w", err)
	}

	results := make([]PartitionResult, 0, len(encoded))
	written := make(map[string]struct{}, len(encoded))
	for _, part := range encoded {
		if err := jc.Store.Put(ctx, part.Key, part.data); err != nil {
			jc.Metrics.StoreWrites.WithLabelValues("clean", "error").Inc()
			return nil, fmt.Errorf("uploading %s: %w", part.Key, err)
		}
		jc.Metrics.StoreWrites.WithLabelValues("clean", "ok").Inc()
		jc.Metrics.RowsWritten.WithLabelValues(part.Edition).Add(float64(part.Rows))
		written[part.Key] = struct{}{}

		jc.Logger.Info("Published partition", logger.Fields{
			"edition": part.Edition,
			"key":     part.Key,
			"rows":    part.Rows,
		})
		results = append(results, part.PartitionResult)
	}

	removed, err := removeStale(ctx, jc.Store, jc.Keys.CleanPrefix(), written)
	if err != nil {
		return nil, err
	}
	if removed > 0 {
		jc.Logger.Info("Removed stale clean objects", logger.Fields{"count": removed})
	}

	if err := jc.Store.Put(ctx, jc.Keys.SuccessKey(), []byte{}); err != nil {
		return nil, fmt.Errorf("writing success marker: %w", err)
	}

	return results, nil
}

// removeStale deletes everything under prefix that is not in keep
func removeStale(ctx context.Context, store storage.Store, prefix string, keep map[string]struct{}) (int, error) {
	keys, err := store.List(ctx, prefix)
	if err != nil {
		return 0, fmt.Errorf("listing %s: %w", prefix, err)
	}

	removed := 0
	for _, key := range keys {
		if _, ok := keep[key]; ok {
			continue
		}
		if err := store.Delete(ctx, key); err != nil {
			return removed, fmt.Errorf("removing stale object: %w", err)
		}
		removed++
	}
	return removed, nil
}

func editionLabel(edition *int) string {
	if edition == nil {
		return storage.HiveDefaultPartition
	}
	return strconv.Itoa(*edition)
}
