package render

import (
	"bytes"
	"fmt"
	"html/template"
)

// Renderer turns a template id plus data into document bytes. The core treats
// rendering as a black box; swapping in a real PDF engine only requires a new
// implementation of this interface.
type Renderer interface {
	Render(templateID string, data map[string]interface{}) ([]byte, error)
}

// TemplateRenderer renders registered html/template documents.
type TemplateRenderer struct {
	templates map[string]*template.Template
}

// NewTemplateRenderer creates a renderer preloaded with the built-in
// reservation form and SPA templates.
func NewTemplateRenderer() *TemplateRenderer {
	r := &TemplateRenderer{templates: make(map[string]*template.Template)}
	r.register("reservation_form", reservationFormTemplate)
	r.register("spa", spaTemplate)
	return r
}

func (r *TemplateRenderer) register(id, body string) {
	r.templates[id] = template.Must(template.New(id).Parse(body))
}

// Render executes the template registered under templateID.
func (r *TemplateRenderer) Render(templateID string, data map[string]interface{}) ([]byte, error) {
	tmpl, ok := r.templates[templateID]
	if !ok {
		return nil, fmt.Errorf("unknown template: %s", templateID)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", templateID, err)
	}
	return buf.Bytes(), nil
}

const reservationFormTemplate = `<!DOCTYPE html>
<html>
<head><title>Reservation Form</title></head>
<body>
	<h1>Reservation Form</h1>
	<p>Booking Reference: {{.reference}}</p>
	<p>Unit: {{.unit_number}} - {{.building}}</p>
	<p>Customer: {{.customer_name}} ({{.customer_email}})</p>
	<p>Price: AED {{.price}}</p>
	<p>Date: {{.date}}</p>
</body>
</html>`

const spaTemplate = `<!DOCTYPE html>
<html>
<head><title>Sale &amp; Purchase Agreement</title></head>
<body>
	<h1>Sale &amp; Purchase Agreement</h1>
	<p>Booking Reference: {{.reference}}</p>
	<p>Unit: {{.unit_number}} - {{.building}}</p>
	<p>Seller and Purchaser agree to the sale of the above unit to
	{{.customer_name}} for AED {{.price}} under the attached payment plan.</p>
	<p>Date: {{.date}}</p>
</body>
</html>`
