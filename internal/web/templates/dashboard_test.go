package templates

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/tbms/internal/core"
)

func render(t *testing.T, d DashboardData) string {
	t.Helper()
	var buf bytes.Buffer
	if err := Dashboard(d).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	return buf.String()
}

func TestDashboardListsTables(t *testing.T) {
	html := render(t, DashboardData{
		Version: "TBMS 2.0",
		Tables:  []core.TableCount{{Name: "Staff", Rows: 3}, {Name: "Attendance", Rows: 12}},
		Gate:    core.GateStatus{MaxWait: 30 * time.Second},
	})

	for _, want := range []string{"<td>Staff</td>", `<td class="num">3</td>`, "<td>Attendance</td>", "Idle", "Lock wait 30s"} {
		if !strings.Contains(html, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}
}

func TestDashboardBusyAndError(t *testing.T) {
	html := render(t, DashboardData{
		Gate:  core.GateStatus{Held: true, HeldBy: "saveSheet", HeldFor: 1500 * time.Millisecond},
		Error: "busy",
	})

	if !strings.Contains(html, "Busy: saveSheet for 1.5s") {
		t.Errorf("dashboard missing busy line:\n%s", html)
	}
	if !strings.Contains(html, `<p class="error">busy</p>`) {
		t.Error("dashboard missing error line")
	}
	if strings.Contains(html, "<table>") {
		t.Error("no table expected without counts")
	}
}

func TestDashboardEscapes(t *testing.T) {
	html := render(t, DashboardData{Version: "<script>x</script>"})
	if strings.Contains(html, "<script>") {
		t.Error("version was not escaped")
	}
}
