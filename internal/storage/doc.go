// Package storage provides the blob store that hands data from the harvester to the
// normalizer.
//
// A Store is a flat key space with put/get/list semantics. FSStore keeps objects as
// files below a data directory (default ~/.local/share/ade-events/) and publishes every
// write atomically with a temp file and rename. S3Store talks to any S3-compatible
// service through minio-go. Keys follows the <dataset>/<stage>/ layout shared by both
// pipeline stages.
package storage
