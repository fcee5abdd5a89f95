// Package normalizer turns raw event CSVs into typed, edition-partitioned Parquet.
//
// The work is split into small stages, each a pure function from Table to Table. Run
// applies them in a fixed order: rename and trim, exclusion filter, event name cleanup,
// datetime split, duration, edition, venue canonicalization, numeric casts, status flags,
// prices, genre, lineup. Project then yields the clean records and Persist publishes
// them. Field values that fail to parse become null; only the exclusion filter drops
// rows.
package normalizer
