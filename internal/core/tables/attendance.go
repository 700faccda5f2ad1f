package tables

import "github.com/JonMunkholm/tbms/internal/core"

func attendance() core.TableSchema {
	return core.TableSchema{
		Name:        core.TableAttendance,
		Description: "Clock-in and clock-out records with photo references",
		Columns: []core.Column{
			core.Text("id"),
			core.Text("staffId"),
			core.Text("storeId"),
			core.Date("date"),
			core.Time("clockIn"),
			core.Time("clockOut"),
			core.Text("photoIn"),
			core.Text("photoOut"),
			core.Text("memo"),
		},
	}
}

func timeChangeRequests() core.TableSchema {
	return core.TableSchema{
		Name:        core.TableTimeChangeRequests,
		Description: "Requested corrections to attendance times",
		Columns: []core.Column{
			core.Text("id"),
			core.Text("attendanceId"),
			core.Text("staffId"),
			core.Text("storeId"),
			core.Text("field"),
			core.Text("currentValue"),
			core.Text("requestedValue"),
			core.Text("reason"),
			core.Text("status"),
			core.Text("createdAt"),
			core.Text("reviewedBy"),
			core.Text("reviewedAt"),
			core.Text("acknowledgedAt"),
		},
	}
}

func editLog() core.TableSchema {
	return core.TableSchema{
		Name:        core.TableEditLog,
		Description: "Append-only log of attendance edits",
		Columns: []core.Column{
			core.Text("id"),
			core.Text("attendanceId"),
			core.Text("field"),
			core.Text("oldValue"),
			core.Text("newValue"),
			core.Text("editedAt"),
			core.Text("clientVersion"),
		},
	}
}
