package console

import "html/template"

const layout = `{{define "layout"}}<!DOCTYPE html>
<html lang="es">
<head><meta charset="utf-8"><title>{{.Title}} · Nutria</title></head>
<body>
{{if .Identity}}
<header>
  <span>{{.Identity.DisplayName}}</span>
  <form method="post" action="/logout"><button type="submit">Cerrar sesión</button></form>
</header>
<nav>
  <ul>
  {{range .Nav}}<li{{if eq .Path $.Path}} aria-current="page"{{end}}><a href="{{.Path}}">{{.Label}}</a></li>
  {{end}}</ul>
</nav>
{{end}}
<main>{{template "content" .}}</main>
</body>
</html>{{end}}`

const loginPage = `{{define "content"}}
<h1>Iniciar sesión</h1>
{{if .Error}}<p role="alert">{{.Error}}</p>{{end}}
<form method="post" action="/login">
  <label>Correo <input type="email" name="email" value="{{.Email}}" required></label>
  <label>Contraseña <input type="password" name="password" required></label>
  <button type="submit">Ingresar</button>
</form>
{{end}}`

const sectionPage = `{{define "content"}}
<h1>{{.Title}}</h1>
<p>Sesión de {{.Identity.DisplayName}}{{if .Identity.Email}} ({{.Identity.Email}}){{end}}.</p>
{{end}}`

func mustPage(content string) *template.Template {
	return template.Must(template.Must(template.New("page").Parse(layout)).Parse(content))
}

var (
	loginTemplate   = mustPage(loginPage)
	sectionTemplate = mustPage(sectionPage)
)
