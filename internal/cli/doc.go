// Package cli implements the command-line interface for ade-events.
//
// The cli package provides the Cobra-based CLI with the harvest, normalize and list
// commands, formatting run summaries as text or JSON. It loads configuration, builds the
// blob store and the per-run job context, and wires them into the scraper and normalizer.
package cli
