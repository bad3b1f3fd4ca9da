package web

import (
	"embed"
	"html/template"

	"github.com/shopspring/decimal"

	"github.com/sellsmart/sellsmart-web/internal/service/aggregation"
)

// TemplatesFS embeds HTML templates for server-side rendering.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS embeds static assets (css/js/images).
//
//go:embed static/*
var StaticFS embed.FS

// Funcs are the helpers available to every template.
var Funcs = template.FuncMap{
	"money": func(d decimal.Decimal) string {
		return d.StringFixed(2)
	},
	"negative": func(d decimal.Decimal) bool {
		return d.IsNegative()
	},
	"saleEarned": aggregation.SaleEarned,
	"saleProfit": aggregation.SaleProfit,
	"damageLoss": aggregation.DamageLoss,
}

// Templates parses every embedded page and partial.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(Funcs).ParseFS(TemplatesFS, "templates/*.html")
}
