// Package ledger provides the run-scoped record of deployment results.
//
// # Purpose
//
// A Ledger maps unit names to the Result produced when that unit's deployment
// action succeeded. Dependents read it to resolve constructor arguments and
// callers read it for final reporting.
//
// # Characteristics
//
//   - **Append-only:** entries are never mutated or removed during a run
//   - **Ordered:** All yields entries in the order they were recorded
//   - **Thread-safe:** writes are serialized behind a mutex, so a reader never
//     observes a partially published entry
package ledger
