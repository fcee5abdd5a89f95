// Package columnar encodes clean event records as Parquet files.
//
// Each edition partition is written as a single snappy-compressed file whose columns
// follow the clean-stage column order. The edition itself is not a column: it lives in
// the edition=<year> path segment the way Hive-partitioned datasets store it.
package columnar
