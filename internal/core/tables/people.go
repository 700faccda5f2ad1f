package tables

import "github.com/JonMunkholm/tbms/internal/core"

func users() core.TableSchema {
	return core.TableSchema{
		Name:        core.TableUsers,
		Description: "Login accounts for managers and store users",
		Columns: []core.Column{
			core.Text("id"),
			core.Text("username"),
			core.Text("password"),
			core.Text("name"),
			core.Text("role"),
			core.Text("email"),
			core.Text("storeId"),
		},
	}
}

func stores() core.TableSchema {
	return core.TableSchema{
		Name:        core.TableStores,
		Description: "Store sites and the company that runs them",
		Columns: []core.Column{
			core.Text("id"),
			core.Text("code"),
			core.Text("name"),
			core.Text("company"),
			core.Text("companyNo"),
			core.Text("address"),
			core.Text("phone"),
			core.Text("email"),
			core.Text("manager"),
			core.Text("memo"),
			core.Bool("active"),
		},
	}
}

func staff() core.TableSchema {
	return core.TableSchema{
		Name:        core.TableStaff,
		Description: "Staff records, pay and kiosk credentials",
		Columns: []core.Column{
			core.Text("id"),
			core.Text("storeId"),
			core.Text("name"),
			core.Text("nickName"),
			core.Text("clothSize"),
			core.Text("kioskPwd"),
			core.Date("dob"),
			core.Text("address"),
			core.Text("niNo"),
			core.Text("eVisa"),
			core.Text("mobile"),
			core.Date("startDate"),
			core.Numeric("rate"),
			core.Text("sortCode"),
			core.Text("accountNo"),
			core.Text("email"),
			core.Text("memo"),
			core.Bool("active"),
		},
	}
}
