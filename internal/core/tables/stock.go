package tables

import "github.com/JonMunkholm/tbms/internal/core"

func stockTemplate() core.TableSchema {
	return core.TableSchema{
		Name:        core.TableStockTemplate,
		Description: "Items every store counts",
		Columns: []core.Column{
			core.Text("id"),
			core.Text("category"),
			core.Text("name"),
			core.Text("unit"),
			core.Numeric("min"),
		},
	}
}

func storeStock() core.TableSchema {
	return core.TableSchema{
		Name:        core.TableStoreStock,
		Description: "Current on-hand quantity per store and item",
		Columns: []core.Column{
			core.Text("id"),
			core.Text("storeId"),
			core.Text("itemId"),
			core.Text("category"),
			core.Text("name"),
			core.Text("unit"),
			core.Numeric("min"),
			core.Numeric("qty"),
		},
	}
}

func stockCounts() core.TableSchema {
	return core.TableSchema{
		Name:        core.TableStockCounts,
		Description: "Weekly stock count lines",
		Columns: []core.Column{
			core.Text("id"),
			core.Text("storeId"),
			core.Text("weekNo"),
			core.Date("countDate"),
			core.Text("itemId"),
			core.Text("category"),
			core.Text("name"),
			core.Text("unit"),
			core.Numeric("qty"),
			core.Text("submittedAt"),
			core.Text("submittedBy"),
		},
	}
}
