// Package ledger records downgrade runs and the files a watcher has already
// handled, in a small SQLite database under the state directory.
//
// The ledger is optional bookkeeping: a single downgrade never needs it, and
// the watcher consults it so that restarts do not reprocess unchanged files.
package ledger
