package notification

import (
	"bytes"
	"html/template"
	"time"
)

var offerEmailTmpl = template.Must(template.New("offer").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1f2937;">
  <h2>{{.Subject}}</h2>
  <p>Hi {{.AgentName}},</p>
  <p>{{.Body}}</p>
  {{if .ActionURL}}<p>
    <a href="{{.ActionURL}}" style="background:#2563eb;color:#fff;padding:10px 18px;border-radius:6px;text-decoration:none;">
      View offer
    </a>
  </p>{{end}}
  {{if .Deadline}}<p>This offer expires at <strong>{{.Deadline}}</strong>.</p>{{end}}
</body>
</html>`))

type offerEmailData struct {
	Subject   string
	AgentName string
	Body      string
	ActionURL string
	Deadline  string
}

func renderOfferEmail(msg Message) string {
	data := offerEmailData{
		Subject:   msg.Subject,
		AgentName: msg.AgentName,
		Body:      msg.Body,
		ActionURL: msg.ActionURL,
	}
	if msg.ExpiresAt != nil {
		data.Deadline = msg.ExpiresAt.UTC().Format(time.RFC1123)
	}

	var buf bytes.Buffer
	if err := offerEmailTmpl.Execute(&buf, data); err != nil {
		// Template and data are static shapes; fall back to the plain body.
		return msg.Body
	}
	return buf.String()
}
