// Package shikimori is the minimal Shikimori GraphQL client used during
// catalog reconciliation.
//
// It exposes the two operations the reconciler needs: a title search
// returning identifiers with primary and Russian names, and a detail lookup
// for one identifier. Every request carries the configured User-Agent, which
// the service requires. Search responses can be cached in an expiring LRU so
// repeated runs over the same catalog do not hit the service for titles that
// were just resolved. GraphQL errors in a 200 response are treated the same
// as transport failures.
package shikimori
