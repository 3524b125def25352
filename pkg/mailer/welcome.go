package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

var welcomeHTML = template.Must(template.New("welcome").Parse(`<html>
<body style="font-family: Georgia, serif; color: #2b2b2b;">
  <h2>Welcome to Inkstone{{if .Name}}, {{.Name}}{{end}}.</h2>
  <p>Your journal is ready. Everything you write is private until you choose to
  share it anonymously with the community.</p>
  <p>Happy writing.</p>
</body>
</html>`))

// NewWelcomeJob builds the welcome email sent after an account is created.
func NewWelcomeJob(name, email string) EmailJob {
	var buf bytes.Buffer
	_ = welcomeHTML.Execute(&buf, struct{ Name string }{Name: name})

	text := "Welcome to Inkstone."
	if name != "" {
		text = fmt.Sprintf("Welcome to Inkstone, %s.", name)
	}
	return EmailJob{
		To:      email,
		Subject: "Welcome to Inkstone",
		Text:    text,
		HTML:    buf.String(),
	}
}
