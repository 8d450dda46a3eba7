package web

import "html/template"

var pageTemplate = template.Must(template.New("page").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Movie recommendation system</title>
<style>
body { font-family: sans-serif; margin: 2rem; background: #111; color: #eee; }
.grid { display: grid; grid-template-columns: repeat(8, 1fr); gap: 1rem; margin-top: 2rem; }
.cell img { width: 100%; border-radius: 4px; }
.cell p { font-size: .9rem; }
.error { color: #f45e6e; }
</style>
</head>
<body>
<h1>Movie recommendation system</h1>
<form action="/recommend" method="get">
  <label for="title">Pick a movie</label>
  <select id="title" name="title">
  {{- range .Titles}}
    <option{{if eq . $.Selected}} selected{{end}}>{{.}}</option>
  {{- end}}
  </select>
  <button type="submit">Recommend</button>
</form>
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
{{if .Items}}
<div class="grid">
{{- range .Items}}
  <div class="cell">
    <p>{{.Movie.Title}}</p>
    <img src="{{.PosterURL}}" alt="{{.Movie.Title}} poster">
  </div>
{{- end}}
</div>
{{end}}
</body>
</html>
`))
