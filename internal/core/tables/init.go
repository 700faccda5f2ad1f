// Package tables defines the canonical TBMS table schemas.
package tables

import "github.com/JonMunkholm/tbms/internal/core"

// Schemas returns every table schema in workbook order.
func Schemas() []core.TableSchema {
	return []core.TableSchema{
		users(),
		stores(),
		staff(),
		attendance(),
		stockTemplate(),
		storeStock(),
		stockCounts(),
		sales(),
		timeChangeRequests(),
		editLog(),
	}
}

// Registry returns a registry holding every TBMS table.
func Registry() *core.Registry {
	return core.MustRegistry(Schemas()...)
}
