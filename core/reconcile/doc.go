// Package reconcile merges externally sourced compensation records into the
// local record store without creating duplicates.
//
// Records are matched on their natural key (owner, effective date, source).
// A missing key is created; an existing key is either overwritten in place or
// left untouched, depending on Options.Overwrite.
//
// # Architecture
//
//  1. Conversion: provider payloads (ProviderRecord) are turned into Records.
//     Records with a missing, non-numeric or non-positive amount are skipped and
//     never reach the store.
//
//  2. Apply: every converted record is looked up and created, updated or
//     skipped inside a single Store transaction. If the store rejects anything,
//     or the commit fails, the whole batch is rolled back and a zero Result is
//     returned with the error.
//
//  3. Status: SyncStatus reports what has been imported so far. It never talks
//     to the provider.
//
// Reconciliation for one owner must not run concurrently; callers serialize it.
//
// # Usage
//
//	engine := reconcile.NewEngine(store, logg)
//	res, err := engine.Reconcile(ctx, ownerID, incoming, reconcile.Options{Overwrite: false})
//
// Setting Options.DryRun computes the same Result and Actions and then rolls
// the transaction back.
package reconcile
