package server

// pageTemplate is the statistics page. Styling follows the same dark theme
// as the rest of our tooling; the report fragments arrive pre-rendered as
// HTML from the report package.
const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}} | cprofilev</title>
    <style>
        :root {
            --bg-primary: #1e293b;
            --bg-secondary: #0f172a;
            --border-color: #334155;
            --text-primary: #f1f5f9;
            --text-secondary: #cbd5e1;
            --text-muted: #94a3b8;
            --accent-blue: #3b82f6;
        }

        * {
            margin: 0;
            padding: 0;
            box-sizing: border-box;
        }

        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;
            background: var(--bg-secondary);
            color: var(--text-primary);
            line-height: 1.6;
        }

        .container {
            max-width: 1200px;
            margin: 0 auto;
            padding: 24px;
        }

        header {
            background: var(--bg-primary);
            border: 1px solid var(--border-color);
            padding: 16px 24px;
            border-radius: 8px;
            margin-bottom: 24px;
            display: flex;
            justify-content: space-between;
            align-items: center;
        }

        h1 {
            font-size: 20px;
            font-weight: 600;
        }

        h2 {
            font-size: 16px;
            font-weight: 600;
            margin: 24px 0 8px;
            color: var(--text-secondary);
        }

        pre {
            background: var(--bg-primary);
            border: 1px solid var(--border-color);
            border-radius: 8px;
            padding: 16px;
            overflow-x: auto;
            font-size: 13px;
            color: var(--text-secondary);
        }

        table {
            width: 100%;
            border-collapse: collapse;
            margin: 16px 0;
            font-family: ui-monospace, SFMono-Regular, Menlo, monospace;
            font-size: 13px;
        }

        th, td {
            text-align: left;
            padding: 6px 12px;
            border-bottom: 1px solid var(--border-color);
            white-space: nowrap;
        }

        th {
            color: var(--text-muted);
            font-weight: 600;
        }

        td.empty {
            color: var(--text-muted);
            text-align: center;
            padding: 24px;
        }

        a {
            color: var(--accent-blue);
            text-decoration: none;
        }

        a:hover {
            text-decoration: underline;
        }

        .focus {
            color: var(--text-muted);
            font-size: 13px;
        }
    </style>
</head>
<body>
    <div class="container">
        <header>
            <h1>{{.Title}}</h1>
            {{if .Focus}}<span class="focus">{{.Focus}} &middot; <a href="/">view all</a></span>{{end}}
        </header>
        <pre>{{.Header}}</pre>
        <table>{{.Table}}</table>
        {{if .Callers}}
        <h2>Called By:</h2>
        <pre>{{.Callers}}</pre>
        {{end}}
        {{if .Callees}}
        <h2>Called:</h2>
        <pre>{{.Callees}}</pre>
        {{end}}
    </div>
</body>
</html>`
