package web

import (
	"fmt"
	"html/template"
	"io"
	"sort"
	"time"

	"github.com/sweeney/kit-booth/internal/status"
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
	"orNone": func(s string) string {
		if s == "" {
			return "none"
		}
		return s
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="5">
<title>Kit Booth</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.idle { color: green; }
.warning { color: #b8860b; font-weight: bold; }
.mistake, .error { color: red; font-weight: bold; }
.notification, .initial { color: blue; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Kit Booth</h1>

<h2>Booth</h2>
<table>
<tr><th>Light</th><td id="light" class="{{.Light}}">{{.Light}}</td></tr>
<tr><th>Sound</th><td>{{orNone (printf "%s" .Sound)}}</td></tr>
<tr><th>Ready</th><td>{{if .Ready}}yes{{else}}settling{{end}}</td></tr>
{{with .Booking.Escalation}}<tr><th>Escalation</th><td class="error">stage {{.Stage}} for {{.Tag}} since {{.Since.UTC.Format "15:04:05"}}</td></tr>{{end}}
<tr><th>In booth</th><td>{{range $i, $t := .Present}}{{if $i}}, {{end}}{{$t}}{{else}}none{{end}}</td></tr>
<tr><th>Waiting for card</th><td>{{range $i, $t := .Booking.InBooking}}{{if $i}}, {{end}}{{$t}}{{else}}none{{end}}</td></tr>
<tr><th>Returning</th><td>{{range $i, $t := .Booking.InReturning}}{{if $i}}, {{end}}{{$t}}{{else}}none{{end}}</td></tr>
</table>

<h2>Checked out</h2>
<table>
<tr><th>Item</th><th>Card</th></tr>
{{range .Loans}}<tr><td>{{.Tag}}</td><td>{{.Card}}</td></tr>
{{else}}<tr><td colspan="2">nothing checked out</td></tr>
{{end}}</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Enters</th><td>{{.Booking.Counts.Enters}}</td></tr>
<tr><th>Exits</th><td>{{.Booking.Counts.Exits}}</td></tr>
<tr><th>Cards</th><td>{{.Booking.Counts.Cards}}</td></tr>
<tr><th>Checked out</th><td>{{.Booking.Counts.CheckedOut}}</td></tr>
<tr><th>Returned</th><td>{{.Booking.Counts.Returned}}</td></tr>
<tr><th>Unauthorized</th><td>{{.Booking.Counts.Unauthorized}}</td></tr>
<tr><th>Anomalies</th><td>{{.Booking.Counts.Anomalies}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Tick</th><td>{{.Config.TickMs}}ms</td></tr>
<tr><th>Presence window</th><td>{{.Config.PresenceWindowMs}}ms</td></tr>
<tr><th>Card window</th><td>{{.Config.CardWindowMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> | <a href="/metrics">metrics</a></p>
</body>
</html>
`

type loan struct {
	Tag  string
	Card string
}

func renderHTML(w io.Writer, snap status.Snapshot) {
	loans := make([]loan, 0, len(snap.Booking.Booked))
	for tag, card := range snap.Booking.Booked {
		loans = append(loans, loan{Tag: tag, Card: card})
	}
	sort.Slice(loans, func(i, j int) bool { return loans[i].Tag < loans[j].Tag })

	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
		Loans  []loan
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
		Loans:    loans,
	}
	indexTmpl.Execute(w, data)
}
