package web

import "html/template"

// The page loads once and client-side JavaScript polls the fragment
// endpoints, replacing only the table bodies. The filter box feeds the
// ids query parameter of /recent_messages.
const pageHTML = `<!DOCTYPE html>
<html>
<head>
    <title>CAN Bus Monitor</title>
    <meta name="viewport" content="width=device-width,initial-scale=1">
    <style>
        table { border-collapse: collapse; width: 100%; }
        th, td { border: 1px solid #ddd; padding: 8px; text-align: left; }
        th { background-color: #f2f2f2; }
        .highlight { background-color: #ffeb3b; }
        .section { margin: 20px 0; }
        .byte { display: inline-block; min-width: 25px; }
        .age-fresh { color: green; }
        .age-medium { color: orange; }
        .age-old { color: red; }
        tbody { transition: opacity 120ms ease-in-out; }
    </style>
    <script>
        const POLL_MS = 600;

        async function fetchAndUpdate(path, elementId)
        {
            try
            {
                const res = await fetch(path, {cache: 'no-store'});
                if (!res.ok)
                {
                    console.error('Fetch failed', path, res.status);
                    return;
                }
                const text = await res.text();
                const el = document.getElementById(elementId);
                if (!el) return;
                el.style.opacity = 0.2;
                requestAnimationFrame(() => {
                    el.innerHTML = text;
                    el.style.opacity = 1.0;
                });
            }
            catch (e)
            {
                console.error('Error fetching', path, e);
            }
        }

        function recentPath()
        {
            const filter = document.getElementById('id_filter').value.trim();
            return filter ? '/recent_messages?ids=' + encodeURIComponent(filter)
                          : '/recent_messages';
        }

        function refresh()
        {
            fetchAndUpdate(recentPath(), 'recent_body');
            fetchAndUpdate('/latest_messages', 'latest_body');
        }

        function startPolling()
        {
            refresh();
            setInterval(refresh, POLL_MS);
        }

        window.addEventListener('load', startPolling);
    </script>
</head>
<body>
    <h2>Recent Messages</h2>
    <div class="section">
        <label>Filter IDs: <input id="id_filter" placeholder="0x123, 0x124"></label>
        <table>
            <thead>
                <tr>
                    <th>Changed</th>
                    <th>ID</th>
                    <th>Length</th>
                    <th>Data</th>
                </tr>
            </thead>
            <tbody id="recent_body">
{{template "recent_rows" .Recent}}            </tbody>
        </table>
    </div>

    <h2>Latest State</h2>
    <div class="section">
        <table>
            <thead>
                <tr>
                    <th>ID</th>
                    <th>Length</th>
                    <th>Data</th>
                    <th>Last Update</th>
                    <th>Age (ms)</th>
                </tr>
            </thead>
            <tbody id="latest_body">
{{template "latest_rows" .Latest}}            </tbody>
        </table>
    </div>
</body>
</html>
`

// recent_rows renders the tbody of the recent-changes table. The
// placeholder row keeps the table visibly alive when nothing changed
// within the retention window.
const recentRowsHTML = `{{if not .}}<tr><td colspan="4">no recent changes</td></tr>
{{end}}{{range .}}<tr><td>{{.ChangedAt}}</td><td>{{.ID}}</td><td>{{.Length}}</td><td>{{range .Bytes}}<span class="byte{{if .Highlight}} highlight{{end}}">{{.Hex}}</span> {{end}}</td></tr>
{{end}}`

// latest_rows renders the tbody of the latest-state table.
const latestRowsHTML = `{{range .}}<tr><td>{{.ID}}</td><td>{{.Length}}</td><td>{{range .Bytes}}<span class="byte{{if .Highlight}} highlight{{end}}">{{.Hex}}</span> {{end}}</td><td>{{.ObservedAt}}</td><td class="{{.AgeClass}}">{{.AgeMS}}</td></tr>
{{end}}`

// templates is parsed once at startup; template errors are programmer
// errors, hence Must.
var templates = template.Must(template.Must(template.Must(
	template.New("page").Parse(pageHTML)).
	New("recent_rows").Parse(recentRowsHTML)).
	New("latest_rows").Parse(latestRowsHTML))
