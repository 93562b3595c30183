// Package registry implements the shared on-disk ontology registry: it resolves
// a version selector to a concrete release, derives the canonical cache path
// StoragePath/<id>/<version>/<id>.<ext>, and materializes missing entries by
// fetching them through a ContentProvider and publishing them with temp file +
// rename semantics. Entries are immutable once published; any number of
// processes may share the same storage root without coordination beyond the
// atomicity of rename. Server handlers and the CLI depend on this package to
// serve ontology files without duplicating filesystem logic.
package registry
