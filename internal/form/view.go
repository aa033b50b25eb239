package form

import (
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/user_form.html
var templateFS embed.FS

// Field labels.
const (
	LabelName     = "Nome completo"
	LabelEmail    = "Email"
	LabelPassword = "Senha"
)

// Style holds the visual tokens used by the rendered form. Values are CSS
// fragments and are trusted.
type Style struct {
	PageBackground  string
	Background      string
	InputBackground string
	Text            string
	FontFamily      string
	Radius          string
	Padding         string
	Spacing         string
	ColumnMinWidth  string
	DividerColor    string
	SkeletonColor   string
	ButtonColor     string
	ErrorColor      string
}

// DefaultStyle returns the dark theme the form ships with.
func DefaultStyle() Style {
	return Style{
		PageBackground:  "#171923",
		Background:      "#1A202C",
		InputBackground: "#2D3748",
		Text:            "#F7FAFC",
		FontFamily:      "system-ui, sans-serif",
		Radius:          "8px",
		Padding:         "2rem",
		Spacing:         "2rem",
		ColumnMinWidth:  "240px",
		DividerColor:    "#4A5568",
		SkeletonColor:   "#4A5568",
		ButtonColor:     "#385898",
		ErrorColor:      "#FC8181",
	}
}

// RenderOptions carries page-level data that is not form state.
type RenderOptions struct {
	// Action is the URL the form posts to.
	Action string
	// Banner is a form-wide error message, e.g. a failed submission.
	Banner string
}

// View renders a Controller as an HTML page.
type View struct {
	tmpl  *template.Template
	style Style
}

// NewView parses the embedded form template.
func NewView(style Style) (*View, error) {
	tmpl, err := template.New("user_form.html").
		Funcs(template.FuncMap{
			"css": func(s string) template.CSS { return template.CSS(s) },
		}).
		ParseFS(templateFS, "templates/user_form.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse form template: %w", err)
	}
	return &View{tmpl: tmpl, style: style}, nil
}

type fieldData struct {
	Name   string
	Label  string
	Type   string
	Value  string
	Error  string
	Loaded bool
}

type pageData struct {
	Style          Style
	Heading        string
	Loaded         bool
	Banner         string
	Action         string
	Rows           [][]fieldData
	CancelHref     string
	SubmitLabel    string
	SubmitDisabled bool
}

// Render writes the page for the controller's current state.
// Password values are never echoed back.
func (v *View) Render(w io.Writer, c *Controller, opts RenderOptions) error {
	values := c.Values()
	loaded := c.IsLoaded()

	field := func(name, label, typ, value string) fieldData {
		return fieldData{
			Name:   name,
			Label:  label,
			Type:   typ,
			Value:  value,
			Error:  c.FieldError(name),
			Loaded: loaded,
		}
	}

	data := pageData{
		Style:   v.style,
		Heading: c.Heading(),
		Loaded:  loaded,
		Banner:  opts.Banner,
		Action:  opts.Action,
		Rows: [][]fieldData{
			{
				field(FieldName, LabelName, "text", values.Name),
				field(FieldEmail, LabelEmail, "email", values.Email),
			},
			{
				field(FieldPassword, LabelPassword, "password", ""),
			},
		},
		CancelHref:     CancelHref,
		SubmitLabel:    c.SubmitLabel(),
		SubmitDisabled: c.SubmitDisabled(),
	}

	if err := v.tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render form: %w", err)
	}
	return nil
}
