package handlers

import (
	"bytes"
	_ "embed"
	"html/template"
	"net/http"
)

// OpenAPIPath is where the API description is served; the docs page loads it.
const OpenAPIPath = "/v1/openapi.json"

//go:embed openapi.json
var openAPISpec []byte

var docsPage = template.Must(template.New("docs").Parse(`<!DOCTYPE html>
<html lang="{{.Locale}}">
  <head>
    <meta charset="utf-8" />
    <title>ShareKindness API{{if ne .Env "production"}} ({{.Env}}){{end}}</title>
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <style>body { margin: 0; } redoc { display: block; height: 100vh; }</style>
  </head>
  <body>
    <redoc spec-url="{{.SpecURL}}" hide-download-button required-props-first sort-props-alphabetically></redoc>
    <script src="https://cdn.jsdelivr.net/npm/redoc@2.2.0/bundles/redoc.standalone.js"></script>
  </body>
</html>`))

type docsData struct {
	Env     string
	Locale  string
	SpecURL string
}

func (a *App) OpenAPIJSON(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(openAPISpec)
}

// OpenAPIDocs renders the ReDoc page for the API description.
func (a *App) OpenAPIDocs(w http.ResponseWriter, _ *http.Request) {
	var buf bytes.Buffer
	data := docsData{Env: a.Config.AppEnv, Locale: a.Config.DefaultLocale, SpecURL: OpenAPIPath}
	if data.Locale == "" {
		data.Locale = "en"
	}
	if err := docsPage.Execute(&buf, data); err != nil {
		a.Logger.Error().Err(err).Msg("render api docs")
		a.error(w, http.StatusInternalServerError, "internal", "internal server error")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
