package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/button-events/internal/logic"
	"github.com/sweeney/button-events/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"ms": func(d time.Duration) int64 {
		return d.Milliseconds()
	},
	"count": func(c logic.EventCounts, ev logic.EventType) int {
		return c[ev]
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="5">
<title>Button {{.Config.Name}}</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.pressed { color: green; font-weight: bold; }
.released { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Button {{.Config.Name}}</h1>

<h2>State</h2>
<table>
<tr><th>Input</th><td class="{{if .Pressed}}pressed{{else}}released{{end}}">{{if .Pressed}}pressed{{else}}released{{end}}</td></tr>
<tr><th>Session</th><td>{{.State}}</td></tr>
<tr><th>Clicks</th><td>{{.Clicks}}</td></tr>
<tr><th>Last press</th><td>{{ms .LastPress}}ms</td></tr>
{{with .LastEvent}}<tr><th>Last event</th><td>{{.Type}} ({{.Clicks}} clicks) at {{.Timestamp.UTC.Format "15:04:05.000"}}</td></tr>{{end}}
</table>

<h2>Recent Events</h2>
<table>
{{range .Recent}}<tr><td>{{.Timestamp.UTC.Format "15:04:05.000"}}</td><td>{{.Type}}</td><td>{{.Clicks}} clicks</td><td>{{ms .PressedFor}}ms</td></tr>
{{else}}<tr><td>none yet</td></tr>
{{end}}</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
</table>

<h2>Event Counts</h2>
<table>
{{range .EventTypes}}<tr><th>{{.}}</th><td>{{count $.Counts .}}</td></tr>
{{end}}</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Input</th><td>{{.Config.Backend}} pin {{.Config.Pin}}, pull {{.Config.Pull}}{{if .Config.ActiveLow}}, active-low{{end}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Debounce</th><td>{{.Config.DebounceMs}}ms</td></tr>
<tr><th>Long press</th><td>{{.Config.LongPressMs}}ms, repeat {{.Config.LongPressRepeatMs}}ms</td></tr>
<tr><th>Multiclick</th><td>{{.Config.MultiClickMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> | <a href="/events.json">Events</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) error {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime     time.Duration
		EventTypes []logic.EventType
	}{
		Snapshot:   snap,
		Uptime:     snap.Uptime(),
		EventTypes: logic.EventTypes,
	}
	return indexTmpl.Execute(w, data)
}
