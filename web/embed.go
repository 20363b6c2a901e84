// Package web holds embedded static assets and templates for the widget host page.
package web

import "embed"

// TemplateFS contains all HTML templates.
//
//go:embed templates
var TemplateFS embed.FS

// StaticFS contains the widget script and stylesheet.
//
//go:embed static
var StaticFS embed.FS
