// Package ingest files matched media into the library.
//
// Every ingest is a two-phase saga against the audit log: a PENDING record is
// written before any byte moves, then the record is resolved to SUCCESS or
// FAILED once the mover returns. Records stranded in PENDING by a crash are
// resolved later by Reconcile, which inspects the filesystem to decide which
// way the interrupted transfer went. Successful ingests trigger a best-effort
// media server refresh and a notification.
package ingest
