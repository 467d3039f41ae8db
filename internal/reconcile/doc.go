// Package reconcile runs the catalog reconciliation job.
//
// A Controller owns a single run slot. Starting a run takes the slot, resets
// the progress log, snapshots the catalog once, and walks the records in
// order: resolve a Shikimori identity from the record's candidate titles
// (Matcher), fetch its detail (Fetcher), and write the normalized detail back
// to the store. Each record ends in exactly one outcome (updated, failed, or
// not found) and one progress entry. Only a failure to enumerate the catalog
// aborts a run; every other failure degrades to a counted outcome.
//
// Stopping is cooperative. RequestStop sets a flag that the loop observes
// between records, so an in-flight search or fetch always completes. Calls to
// the metadata service are spaced by a ratelimit.Delay: a short pause between
// titles of one record and a longer one between records.
package reconcile
