// Package cas provides a filesystem-backed, content-addressed payload store.
//
// Callers compute a hash of a request's canonical content, then store and later retrieve the raw response payload under that hash. If the request changes, the hash
// changes and the stored payload is naturally missed. Payloads never expire; the only removal is capacity eviction.
//
// Storage is rooted at DB.AbsRoot and uses a sharded directory structure:
//
//	<AbsRoot>/<namespace>/<hash[0:2]>/<hash[2:]>
//
// Each file holds the payload bytes verbatim, so records can be inspected with ordinary tools.
//
// When DB.MaxBytes is positive, Store evicts the oldest records in the namespace (by modification time) until the namespace fits, never evicting the record it just
// wrote.
package cas
