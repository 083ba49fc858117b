// Package target defines the identity of a scrape target (a timeline within a
// tenant) and resolves work specifications into the set of targets that should
// be scraped.
//
// A work specification is one of:
//
//	ALL                 every timeline of every tenant on the pageserver
//	<tenant>            every timeline of one tenant
//	<tenant>:<timeline> exactly one timeline, no remote lookup
//
// Resolution is all-or-nothing: a malformed specification or a failed remote
// enumeration fails the whole call and no partial set is returned.
package target
