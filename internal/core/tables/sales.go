package tables

import "github.com/JonMunkholm/tbms/internal/core"

func sales() core.TableSchema {
	return core.TableSchema{
		Name:        core.TableSales,
		Description: "Daily takings per store",
		Columns: []core.Column{
			core.Text("id"),
			core.Text("storeId"),
			core.Date("date"),
			core.Numeric("cash"),
			core.Numeric("card"),
			core.Numeric("delivery"),
			core.Numeric("total"),
			core.Text("memo"),
			core.Text("createdBy"),
		},
	}
}
