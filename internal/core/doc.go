// Package core provides the SharkGuard business logic.
//
// This package contains all domain logic independent of any transport or
// storage driver. It is used by the HTTP server, the sharkctl CLI and tests
// without modification. Storage is reached through the [Store] interface,
// implemented by the postgres and sqlite packages under internal/store.
//
// # Catch Import
//
// [Service.Import] loads a catch CSV (columns _id, date, areaName,
// gearBeach, Fate, Common Name, Species name) in these stages:
//
//  1. Decode: header-keyed rows, BOM stripped, blank lines skipped
//  2. Normalize: trim values, parse _id, look up the species risk
//  3. Validate: all-or-nothing; any bad record rejects the whole file
//  4. Upsert sharks (skip on existing name) and beaches (skip on existing beach)
//  5. Resolve shark and beach ids by natural key
//  6. Insert one catch per record
//
// Failures come back as an [ImportError] whose Kind is [KindValidation]
// (nothing written) or [KindStorage]. Stages 4-6 run inside one transaction
// only when [ServiceConfig].Atomic is set; otherwise a storage failure can
// leave earlier stages applied.
//
// Every attempt is recorded in the import history. Successful uploads are
// archived when an [Archiver] is configured.
//
// # Species Reference
//
// The species to risk table is a fixed map loaded at init. Species missing
// from the table import with risk [RiskUnknown].
//
// # Reports
//
// [Service.ListCatches] pages through catches. Aggregates ([Service.Stats],
// [Service.BeachStats], [Service.SpeciesDistribution]) are cached with
// go-cache and flushed whenever an import or reset changes the tables.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a code for support reference (IMP, VAL, FILE,
// USR, DB, RATE); see error_messages.go.
package core
