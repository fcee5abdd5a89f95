// Package event provides the record types that flow through the ADE events pipeline.
//
// RawEventRecord is the untyped, fourteen-column row the harvester scrapes from an
// event detail page. CleanEventRecord is the typed, eighteen-column row the normalizer
// derives from it. The package also carries the CSV codec used for the raw stage and the
// lenient datetime parsing shared by both stages.
package event
