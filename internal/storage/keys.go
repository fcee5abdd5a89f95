package storage

import (
	"fmt"
	"path"
	"strings"
)

// HiveDefaultPartition names the partition of rows without an edition.
const HiveDefaultPartition = "__HIVE_DEFAULT_PARTITION__"

// Keys builds object keys below <dataset>/<stage>/.
type Keys struct {
	Dataset    string
	RawStage   string
	CleanStage string
}

// RawPrefix is the prefix under which the harvester publishes raw CSV files.
func (k Keys) RawPrefix() string {
	return path.Join(k.Dataset, k.RawStage) + "/"
}

// CleanPrefix is the prefix under which the normalizer publishes Parquet partitions.
func (k Keys) CleanPrefix() string {
	return path.Join(k.Dataset, k.CleanStage) + "/"
}

// RawKey is the key of the raw CSV for one edition year.
func (k Keys) RawKey(year int) string {
	return fmt.Sprintf("%sade_events_%d.csv", k.RawPrefix(), year)
}

// PartitionPrefix is the prefix of one edition partition. A nil edition maps
// to the default partition.
func (k Keys) PartitionPrefix(edition *int) string {
	value := HiveDefaultPartition
	if edition != nil {
		value = fmt.Sprintf("%d", *edition)
	}
	return fmt.Sprintf("%sedition=%s/", k.CleanPrefix(), value)
}

// PartitionKey is the key of the single Parquet part of an edition partition.
func (k Keys) PartitionKey(edition *int) string {
	return k.PartitionPrefix(edition) + "part-00000.parquet"
}

// SuccessKey is the marker written after a complete publish.
func (k Keys) SuccessKey() string {
	return k.CleanPrefix() + "_SUCCESS"
}

// IsRawCSV reports whether key names a raw CSV below the raw prefix.
func (k Keys) IsRawCSV(key string) bool {
	return strings.HasPrefix(key, k.RawPrefix()) && strings.HasSuffix(key, ".csv")
}

func contentType(key string) string {
	switch path.Ext(key) {
	case ".csv":
		return "text/csv"
	case ".parquet":
		return "application/vnd.apache.parquet"
	default:
		return "application/octet-stream"
	}
}
