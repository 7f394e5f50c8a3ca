/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: templates.go
Description: HTML template for the schema fingerprint report.
*/

package reporting

// dashboardTemplate is the main HTML template for the report
const dashboardTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}} - FlatCrawler</title>
    <script src="https://cdn.jsdelivr.net/npm/chart.js"></script>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif;
            background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
            min-height: 100vh;
            color: #333;
        }
        .container { max-width: 1400px; margin: 0 auto; padding: 20px; }
        .card {
            background: rgba(255, 255, 255, 0.95);
            border-radius: 20px;
            padding: 24px;
            margin-bottom: 24px;
            box-shadow: 0 8px 32px rgba(0, 0, 0, 0.1);
        }
        .header { text-align: center; }
        .header h1 { color: #4a5568; font-size: 2.2rem; margin-bottom: 8px; }
        .header p { color: #718096; }
        .stats { display: grid; grid-template-columns: repeat(auto-fit, minmax(180px, 1fr)); gap: 16px; }
        .stat { text-align: center; }
        .stat .value { font-size: 2rem; font-weight: 700; color: #4a5568; }
        .stat .label { color: #718096; text-transform: uppercase; font-size: 0.8rem; }
        .charts { display: grid; grid-template-columns: 2fr 1fr; gap: 24px; }
        h2 { color: #4a5568; margin-bottom: 12px; }
        .bucket { border-left: 4px solid #667eea; padding-left: 12px; margin: 12px 0; }
        .hash { font-family: monospace; font-weight: 600; }
        table { width: 100%; border-collapse: collapse; margin-top: 8px; }
        td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #e2e8f0; font-size: 0.9rem; }
        .fields { font-family: monospace; color: #4a5568; white-space: pre; }
    </style>
</head>
<body>
<div class="container">
    <div class="card header">
        <h1>{{.Title}}</h1>
        <p>Run <span id="run-id">{{.RunID}}</span> over {{.InputPath}} &middot; generated {{.GeneratedAt.Format "2006-01-02 15:04:05"}}{{if .Version}} &middot; v{{.Version}}{{end}}</p>
    </div>

    <div class="card stats">
        <div class="stat"><div class="value" id="stat-analyzed">{{.Analyzed}}</div><div class="label">Analyzed</div></div>
        <div class="stat"><div class="value" id="stat-skipped">{{.Skipped}}</div><div class="label">Skipped</div></div>
        <div class="stat"><div class="value" id="stat-failed">{{.Failed}}</div><div class="label">Failed</div></div>
        <div class="stat"><div class="value" id="stat-buckets">{{.Buckets}}</div><div class="label">Fingerprints</div></div>
    </div>

    <div class="card charts">
        <div><h2>{{.Charts.BucketChart.Title}}</h2><canvas id="bucketChart"></canvas></div>
        <div><h2>{{.Charts.OutcomeChart.Title}}</h2><canvas id="outcomeChart"></canvas></div>
    </div>

    {{range .Groups}}
    <div class="card group" data-field-count="{{.FieldCount}}">
        <h2>Field count: {{.FieldCount}}</h2>
        {{range .Buckets}}
        <div class="bucket" data-hash="{{hex .Hash}}">
            <span class="hash">{{hex .Hash}}</span> &middot; {{len .Results}} files
            <table>
                <tr><th>File</th><th>Path</th></tr>
                {{range .Results}}
                <tr class="file">
                    <td class="name">{{.FileName}}</td>
                    <td class="path">{{.Path}}</td>
                </tr>
                {{if $.Detail}}{{if .Fields}}
                <tr><td colspan="2" class="fields">{{range .Fields}}{{.}}
{{end}}</td></tr>
                {{end}}{{end}}
                {{end}}
            </table>
        </div>
        {{end}}
    </div>
    {{else}}
    <div class="card"><p id="empty">No files were analyzed.</p></div>
    {{end}}
</div>
<script>
    const bucketChart = {{json .Charts.BucketChart}};
    new Chart(document.getElementById('bucketChart'), { type: bucketChart.type, data: bucketChart.data, options: bucketChart.options });
    const outcomeChart = {{json .Charts.OutcomeChart}};
    new Chart(document.getElementById('outcomeChart'), { type: outcomeChart.type, data: outcomeChart.data, options: outcomeChart.options });
</script>
</body>
</html>
`
