// Package catalog persists the local anime records that reconciliation
// updates.
//
// Three backends implement Store: SQLite (the default, a file under the data
// directory), PostgreSQL through pgx's database/sql driver, and MongoDB. The
// SQL backends share one implementation and differ only in placeholder style
// and migration files, which are embedded and applied on open.
//
// ApplyDetail overwrites exactly the reconciled fields of one record and
// stamps SyncedAt. Titles are never touched. Applying the same detail twice
// leaves every field but SyncedAt unchanged. A key that no longer exists
// yields ErrRecordNotFound so a deletion racing a long run degrades to a
// counted failure.
package catalog
