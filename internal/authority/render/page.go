package render

import "html/template"

var pageTemplate = template.Must(template.New("page").Parse(`<!doctype html>
<html>
<head>
<meta charset=utf-8>
<title>{{.Label}}</title>
{{- with .Page.FaviconURL}}
<link rel="icon" href="{{.}}">
{{- end}}
</head>
<body>
<h1>{{.Label}}</h1>
{{- with .Description}}
<blockquote><p>{{.}}</p></blockquote>
{{- end}}
<h2>NK ČR</h2>
<ul>
<li><a href="{{.AuthorityURL}}">{{.AuthorityID}}</a></li>
</ul>
{{- range .Sections}}
<h2>{{.Name}}</h2>
<ul>
{{- range .Entries}}
<li><a href="{{.URL}}">{{.Ident}}</a></li>
{{- end}}
</ul>
{{- end}}
<footer>
<p>Generated by NKlink at {{.GeneratedAt}}
{{- with .Page.DocumentationURL}} · <a href="{{.}}">Documentation</a>{{end}}
{{- with .Page.APIURL}} · <a href="{{.}}">API</a>{{end}}
{{- with .Page.SourceURL}} · <a href="{{.}}">Source</a>{{end}}
 · <a href="{{.JSONURL}}">JSON</a></p>
</footer>
</body>
</html>
`))
