// Package coordinator keeps one poll task running for every timeline in the
// desired set.
//
// Every reconcile interval the coordinator resolves the configured work
// specifications against the pageserver, diffs the result with the task
// registry, starts tasks for new keys and asks tasks for removed keys to stop.
// A task leaves the registry itself when it terminates, whether it was asked
// to stop or failed. A failed key is therefore picked up again on the next
// cycle, and a key whose stop is still pending is never started twice.
package coordinator
