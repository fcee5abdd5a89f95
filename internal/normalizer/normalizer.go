package normalizer

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/pfrederiksen/ade-events/internal/event"
	"github.com/pfrederiksen/ade-events/internal/job"
	"github.com/pfrederiksen/ade-events/internal/logger"
)

// NamedStage pairs a stage with the name used in logs and metrics.
type NamedStage struct {
	Name string
	Run  Stage
}

// Normalizer runs the cleaning pipeline over the raw stage.
type Normalizer struct {
	stages []NamedStage
}

// Result summarizes a normalize run
type Result struct {
	RawFiles      []string          `json:"raw_files"`
	RowsRead      int               `json:"rows_read"`
	RowsMalformed int               `json:"rows_malformed"`
	RowsExcluded  int               `json:"rows_excluded"`
	RowsWritten   int               `json:"rows_written"`
	Partitions    []PartitionResult `json:"partitions"`
}

// New creates a Normalizer. A nil exclusion list uses DefaultExclusions.
func New(exclusions []string) *Normalizer {
	if exclusions == nil {
		exclusions = DefaultExclusions
	}
	return &Normalizer{stages: Stages(exclusions)}
}

// Stages returns the cleaning stages in the order they must run.
func Stages(exclusions []string) []NamedStage {
	return []NamedStage{
		{"exclude_names", ExcludeNames(exclusions)},
		{"canonicalize_names", CanonicalizeNames},
		{"split_datetimes", SplitDatetimes},
		{"derive_duration", DeriveDuration},
		{"derive_edition", DeriveEdition},
		{"canonicalize_venues", CanonicalizeVenues},
		{"cast_numbers", CastNumbers},
		{"flag_status", FlagStatus},
		{"parse_prices", ParsePrices},
		{"normalize_genre", NormalizeGenre},
		{"normalize_lineup", NormalizeLineup},
	}
}

// Transform runs every stage over raw records and projects the result.
// Stage timings go to jc when it is not nil.
func (n *Normalizer) Transform(jc *job.Context, raws []event.RawEventRecord) []event.CleanEventRecord {
	t := FromRaw(raws)
	for _, stage := range n.stages {
		started := time.Now()
		t = stage.Run(t)
		if jc != nil {
			jc.Metrics.ObserveStage(stage.Name, time.Since(started))
			jc.Logger.Debug("Stage complete", logger.Fields{"stage": stage.Name, "rows": len(t)})
		}
	}
	return Project(t)
}

// Run reads every raw CSV, cleans it and publishes the clean partitions.
func (n *Normalizer) Run(ctx context.Context, jc *job.Context) (*Result, error) {
	started := jc.Now()
	result, err := n.run(ctx, jc)
	jc.Metrics.RecordRun("normalize", started, jc.Now(), err == nil)
	return result, err
}

func (n *Normalizer) run(ctx context.Context, jc *job.Context) (*Result, error) {
	objects, err := jc.Store.GetPrefix(ctx, jc.Keys.RawPrefix())
	if err != nil {
		return nil, fmt.Errorf("reading raw stage: %w", err)
	}

	result := &Result{RawFiles: make([]string, 0, len(objects))}
	raws := make([]event.RawEventRecord, 0)
	for _, obj := range objects {
		if !jc.Keys.IsRawCSV(obj.Key) {
			continue
		}
		key := obj.Key
		records, err := event.ReadCSV(bytes.NewReader(obj.Data), func(line int, err error) {
			result.RowsMalformed++
			jc.Metrics.RowsMalformed.Inc()
			jc.Logger.Warn("Skipping unparseable raw row", logger.Fields{
				"key":   key,
				"line":  line,
				"error": err.Error(),
			})
		})
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", obj.Key, err)
		}
		jc.Logger.Info("Read raw file", logger.Fields{"key": obj.Key, "rows": len(records)})
		result.RawFiles = append(result.RawFiles, obj.Key)
		raws = append(raws, records...)
	}
	result.RowsRead = len(raws)
	jc.Metrics.RowsRead.Add(float64(len(raws)))

	records := n.Transform(jc, raws)
	result.RowsExcluded = len(raws) - len(records)
	jc.Metrics.RowsExcluded.Add(float64(result.RowsExcluded))
	countNulls(jc, records)

	partitions, err := Persist(ctx, jc, records)
	if err != nil {
		return nil, err
	}
	result.Partitions = partitions
	result.RowsWritten = len(records)

	jc.Logger.Info("Normalize complete", logger.Fields{
		"raw_files":  len(result.RawFiles),
		"rows_read":  result.RowsRead,
		"malformed":  result.RowsMalformed,
		"excluded":   result.RowsExcluded,
		"written":    result.RowsWritten,
		"partitions": len(partitions),
	})

	return result, nil
}

// countNulls records how many clean values ended up null per column
func countNulls(jc *job.Context, records []event.CleanEventRecord) {
	for _, r := range records {
		nulls := map[string]bool{
			"edition":          r.Edition == nil,
			"event_name":       r.EventName == "",
			"start_date":       r.StartDate == nil,
			"start_time":       r.StartTime == nil,
			"end_date":         r.EndDate == nil,
			"end_time":         r.EndTime == nil,
			"duration_minutes": r.DurationMinutes == nil,
			"venue_name":       r.VenueName == nil,
			"address":          r.Address == "",
			"latitude":         r.Latitude == nil,
			"longitude":        r.Longitude == nil,
			"price_presale":    r.PricePresale == nil,
			"price_door":       r.PriceDoor == nil,
			"capacity":         r.Capacity == nil,
		}
		for field, isNull := range nulls {
			if isNull {
				jc.Metrics.FieldNulls.WithLabelValues(field).Inc()
			}
		}
	}
}
