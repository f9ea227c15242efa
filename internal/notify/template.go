package notify

import (
	"bytes"
	"html/template"
)

var completionTemplate = template.Must(template.New("completion").Parse(`<!DOCTYPE html>
<html>
<head>
<meta content="text/html; charset=utf-8" http-equiv="Content-Type"/>
<title>{{.ListName}} has been completed by {{.CompleterUsername}}!</title>
</head>
<body style="margin:0;padding:24px;font-family:'Open Sans',Arial,sans-serif;color:#555555;">
<h1 style="font-size:22px;">Hi {{.AuthorUsername}},</h1>
<p><strong>{{.CompleterUsername}}</strong> just finished their copy of your list <strong>{{.ListName}}</strong>.</p>
<p>Thanks for sharing with EasyList!</p>
</body>
</html>
`))

// Subject is the mail subject line for a completion notice.
func Subject(n Completion) string {
	return n.ListName + " has been completed by " + n.CompleterUsername + "!"
}

// RenderHTML renders the completion mail body. User-provided names are escaped.
func RenderHTML(n Completion) (string, error) {
	var buf bytes.Buffer
	if err := completionTemplate.Execute(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}
