package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title      string
	Heading    string
	Subheading string
	CTALabel   string
	CTAURL     string
}

type selectionInviteEmailData struct {
	baseEmailData
	PropertyName string
}

type finalizationConfirmationEmailData struct {
	baseEmailData
	PropertyName  string
	SelectedCount int
	AddonCount    int
	HasAddons     bool
}

type deliveryEmailData struct {
	baseEmailData
	PropertyName string
}

type reopenRequestedEmailData struct {
	baseEmailData
	PropertyName string
	ClientEmail  string
	Reason       string
}

type reopenApprovedEmailData struct {
	baseEmailData
	PropertyName string
}

type reopenDeniedEmailData struct {
	baseEmailData
	PropertyName string
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}
