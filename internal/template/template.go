// Package template renders the self-contained HTML email document. It is a
// pure function of its parameters: no store access, no network.
package template

import (
	"html/template"
	"strings"
)

type Params struct {
	Site           string
	Title          string
	Excerpt        string
	Permalink      string
	Image          string // empty, absolute URL, or "cid:..." reference
	UnsubscribeURL string // empty means the generic footer sentence
}

// URL-valued fields are passed through as template.URL so the exact strings
// survive rendering (a "cid:" scheme would otherwise be neutered).
type templateData struct {
	Site        string
	Title       string
	Excerpt     string
	Permalink   template.URL
	Image       template.URL
	Unsubscribe template.URL
}

const emailBody = `<!doctype html><html><head><meta charset="UTF-8"><meta name="viewport" content="width=device-width,initial-scale=1">
<style>img{border:0;outline:none;text-decoration:none;}@media (max-width:620px){.container{width:100%!important;}}</style>
</head><body style="margin:0;background:#f3f4f6;font-family:Arial,Helvetica,sans-serif;color:#111;">
<table role="presentation" cellpadding="0" cellspacing="0" border="0" width="100%" style="background:#f3f4f6;padding:24px 12px;">
<tr><td align="center">
  <table class="container" role="presentation" cellpadding="0" cellspacing="0" border="0" width="600" style="width:100%;max-width:600px;background:#fff;border-radius:14px;overflow:hidden;">
    <tr><td style="background:#111;color:#fff;padding:14px 24px;font-size:16px;font-weight:700;">{{.Site}}</td></tr>
    {{if .Image}}<tr><td style="padding:0 24px 16px 24px">
      <img src="{{.Image}}" width="552" alt="" style="display:block;border:0;outline:none;text-decoration:none;border-radius:10px;width:100%;max-width:552px;height:auto;">
    </td></tr>{{end}}
    <tr><td style="padding:0 24px 8px 24px">
      <h1 style="margin:0 0 8px 0;font-size:22px;line-height:1.25;">{{.Title}}</h1>
    </td></tr>
    <tr><td style="padding:0 24px 20px 24px;font-size:16px;color:#111;line-height:1.6;">{{.Excerpt}}</td></tr>
    <tr><td style="padding:0 24px 28px 24px">
      <a href="{{.Permalink}}" style="display:inline-block;background:#111;color:#fff;padding:12px 18px;border-radius:10px;text-decoration:none;font-weight:600;">Read on {{.Site}}</a>
    </td></tr>
    <tr><td style="padding:0 24px 24px 24px">
      <hr style="border:0;border-top:1px solid #e5e7eb;margin:0 0 16px 0;">
      <p style="margin:0;font-size:12px;color:#6b7280;">{{if .Unsubscribe}}If you no longer want these emails, <a href="{{.Unsubscribe}}" style="color:#6b7280">click to unsubscribe</a>.{{else}}If you no longer want these emails, reply to this message or manage your subscription on the site.{{end}}</p>
    </td></tr>
  </table>
</td></tr>
</table>
</body></html>`

var emailTemplate = template.Must(template.New("email").Parse(emailBody))

// Render builds the HTML email document.
func Render(p Params) (string, error) {
	var b strings.Builder
	err := emailTemplate.Execute(&b, templateData{
		Site:        p.Site,
		Title:       p.Title,
		Excerpt:     p.Excerpt,
		Permalink:   template.URL(p.Permalink),
		Image:       template.URL(p.Image),
		Unsubscribe: template.URL(p.UnsubscribeURL),
	})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}
