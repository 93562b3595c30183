// Package provider contains the HTTP implementations of the registry's two
// upstream capabilities: a BioRegistry client that resolves the currently
// published version of an ontology, and an OBO library client that downloads
// release artifacts. Both share one tuned http.Client and translate upstream
// failures into the registry error taxonomy so the core never depends on
// transport details.
package provider
