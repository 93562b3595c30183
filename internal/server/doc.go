// Package server wires the ontology registry into a Fiber application. The
// main route family /ontologies/:id/:version/:format materializes the
// requested ontology file on first access and streams it from the local
// cache afterwards; diagnostics live under /-/ and never touch the upstream
// registries. Every response carries an X-Request-ID header so log lines can
// be correlated across the fetch pipeline.
package server
