package svg

import (
	"fmt"
	"html/template"
)

// Placeholder renders an empty chart frame carrying message, used when a
// series has no points for the selected range.
func Placeholder(width, height int, title, message string) template.HTML {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	titleID := makeID(title, "empty-title")
	label := template.HTMLEscapeString(fallback(message, "No data"))
	return template.HTML(fmt.Sprintf(
		"<svg xmlns=\"http://www.w3.org/2000/svg\" viewBox=\"0 0 %d %d\" role=\"img\" aria-labelledby=\"%s\" class=\"chart-empty\">"+
			"<title id=\"%s\">%s</title>"+
			"<rect x=\"1\" y=\"1\" width=\"%d\" height=\"%d\" fill=\"none\" stroke=\"#cbd5f5\" stroke-dasharray=\"4,4\" rx=\"6\"></rect>"+
			"<text x=\"%d\" y=\"%d\" fill=\"#64748b\" font-size=\"13\" text-anchor=\"middle\">%s</text></svg>",
		width, height, titleID,
		titleID, template.HTMLEscapeString(fallback(title, "Chart")),
		width-2, height-2,
		width/2, height/2, label,
	))
}
