// Package core provides the business logic of the store back office: a
// row store on top of spreadsheet sheets, plus the attendance, stock count
// and time-change workflows built on it.
//
// The package is independent of any transport. It is used by the HTTP
// action handlers, the tbmsctl CLI and tests without modification.
//
// # Architecture
//
//   - Registry: the immutable set of [TableSchema] values, one per sheet.
//   - Reconcile: maps a sheet's stored header to its schema and migrates
//     the sheet when they differ (renamed, reordered or surplus columns).
//   - Codec: converts between loosely typed cells and [Record] values.
//   - RowStore: read, merge-upsert, append, delete and narrow column
//     writes by identifier.
//   - Gate: admits one operation at a time with a bounded wait.
//   - Service: the entry point. Every operation runs under the gate and
//     flushes the workbook when it changed.
//
// # Tables
//
// Schemas are plain values registered with [NewRegistry]:
//
//	reg := core.MustRegistry(core.TableSchema{
//	    Name: "Staff",
//	    Columns: []core.Column{
//	        core.Text("id"),
//	        core.Text("name"),
//	        core.Numeric("rate"),
//	    },
//	})
//
// The first column is always the identifier.
//
// # Header Reconciliation
//
// Header names match after removing whitespace, '-' and '_' and lowering
// case, so "Nick Name", "nick_name" and "nickname" all map to nickName.
// A sheet whose header already matches is never written.
//
// # Error Handling
//
// Errors wrap one of the sentinels in errors.go and are mapped to
// user-facing messages with [MapError]:
//
//   - TBL001: unknown table
//   - VAL001-VAL004: invalid parameters
//   - NF001: not found
//   - LCK001: lock timeout
//   - WF001: invalid workflow transition
package core
