// Package templates holds the HTML components served by the web package.
package templates

import (
	"context"
	"io"
	"strconv"
	"time"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/tbms/internal/core"
)

// DashboardData is the view model for the status page.
type DashboardData struct {
	Version string
	Time    string
	Tables  []core.TableCount
	Gate    core.GateStatus
	Error   string
}

const dashboardStyle = `body{font-family:system-ui,sans-serif;margin:2rem;color:#1f2937}` +
	`table{border-collapse:collapse;min-width:20rem}` +
	`th,td{border-bottom:1px solid #e5e7eb;padding:.4rem .8rem;text-align:left}` +
	`td.num{text-align:right}.busy{color:#b45309}.idle{color:#047857}.error{color:#b91c1c}`

// Dashboard renders the table list with row counts and the gate state.
func Dashboard(d DashboardData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &printer{w: w}
		p.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		p.raw(`<title>`)
		p.text(d.Version)
		p.raw(`</title><style>` + dashboardStyle + `</style></head><body>`)

		p.raw(`<h1>`)
		p.text(d.Version)
		p.raw(`</h1><p>Server time `)
		p.text(d.Time)
		p.raw(`</p>`)

		if d.Gate.Held {
			p.raw(`<p class="busy">Busy: `)
			p.text(d.Gate.HeldBy)
			p.raw(` for `)
			p.text(d.Gate.HeldFor.Round(time.Millisecond).String())
			p.raw(`</p>`)
		} else {
			p.raw(`<p class="idle">Idle</p>`)
		}
		p.raw(`<p>Lock wait `)
		p.text(d.Gate.MaxWait.String())
		p.raw(`, timeouts `)
		p.text(strconv.FormatInt(d.Gate.Timeouts, 10))
		p.raw(`</p>`)

		if d.Error != "" {
			p.raw(`<p class="error">`)
			p.text(d.Error)
			p.raw(`</p>`)
		}

		if len(d.Tables) > 0 {
			p.raw(`<table><thead><tr><th>Table</th><th>Rows</th></tr></thead><tbody>`)
			for _, t := range d.Tables {
				p.raw(`<tr><td>`)
				p.text(t.Name)
				p.raw(`</td><td class="num">`)
				p.text(strconv.Itoa(t.Rows))
				p.raw(`</td></tr>`)
			}
			p.raw(`</tbody></table>`)
		}

		p.raw(`</body></html>`)
		return p.err
	})
}

// printer stops writing after the first error.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) raw(s string) {
	if p.err != nil {
		return
	}
	_, p.err = io.WriteString(p.w, s)
}

func (p *printer) text(s string) {
	p.raw(templ.EscapeString(s))
}

