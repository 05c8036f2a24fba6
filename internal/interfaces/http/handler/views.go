package handler

import (
	"embed"
	"html/template"

	"github.com/erp/catalog-console/internal/domain/catalog"
)

//go:embed templates/*.html
var templateFiles embed.FS

// Page template names
const (
	pageCatalog  = "catalog.html"
	pageDelete   = "delete.html"
	pageImages   = "images.html"
	pageLogin    = "login.html"
	pageRegister = "register.html"
)

// Templates parses the embedded console views
func Templates() (*template.Template, error) {
	return template.New("console").
		Funcs(template.FuncMap{"price": catalog.FormatPrice}).
		ParseFS(templateFiles, "templates/*.html")
}
