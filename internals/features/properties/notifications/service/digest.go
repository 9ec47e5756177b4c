package service

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/html"

	notifModel "propertytools_backend/internals/features/properties/notifications/model"
)

// Digest intro lines
const (
	IntroChanges = "The following posts/properties were created or updated:"
	IntroNew     = "The following new Property posts have been added in the last 24 hours:"
	IntroTest    = "This is a test notification email. It shows how property updates will appear:"

	footerDefault = "This message was generated automatically."
	footerTest    = "This test message was generated automatically."
)

var digestTmpl = template.Must(template.New("digest").
	Funcs(template.FuncMap{"orNA": notifModel.OrNA}).
	Parse(`<p>{{.Intro}}</p>
<table border="1" cellpadding="6" cellspacing="0" style="border-collapse:collapse;">
  <thead>
    <tr style="background:#f2f2f2;">
      <th align="left">Match (Yes/No)</th>
      <th align="left">Address</th>
      <th align="left">Builder (Imported)</th>
      <th align="left">Builder (From Site)</th>
      <th align="left">Subdivision (Imported)</th>
      <th align="left">Subdivision (From Site)</th>
      <th align="left">Status</th>
      <th align="left">Action</th>
    </tr>
  </thead>
  <tbody>
  {{- range .Rows}}
    <tr>
      <td>{{.MatchLabel}}</td>
      <td>{{.Address}}</td>
      <td>{{orNA .BuilderRaw}}</td>
      <td>{{orNA .Builder}}</td>
      <td>{{orNA .SubdivisionRaw}}</td>
      <td>{{orNA .Subdivision}}</td>
      <td>{{orNA .Status}}</td>
      <td>{{.Action}}</td>
    </tr>
  {{- end}}
  </tbody>
</table>
<p>{{.Footer}}</p>`))

var htmlMinifier = func() *minify.M {
	m := minify.New()
	m.Add("text/html", &html.Minifier{KeepEndTags: true, KeepQuotes: true, KeepDocumentTags: true})
	return m
}()

// RenderDigest renders the digest table. Cell values are HTML-escaped.
func RenderDigest(intro string, rows []notifModel.Entry, test bool) (string, error) {
	footer := footerDefault
	if test {
		footer = footerTest
	}
	var buf bytes.Buffer
	if err := digestTmpl.Execute(&buf, struct {
		Intro  string
		Footer string
		Rows   []notifModel.Entry
	}{intro, footer, rows}); err != nil {
		return "", fmt.Errorf("render digest: %w", err)
	}
	out, err := htmlMinifier.String("text/html", buf.String())
	if err != nil {
		return buf.String(), nil
	}
	return out, nil
}

// SampleEntries are the rows of the test email.
func SampleEntries() []notifModel.Entry {
	return []notifModel.Entry{
		{Match: true, Address: "1234 N Test Ave", BuilderRaw: "BuilderX", Builder: "BuilderX",
			SubdivisionRaw: "Subdivision A", Subdivision: "Subdivision A", Status: "Active", Action: notifModel.ActionCreated},
		{Match: false, Address: "5678 W Example St", BuilderRaw: "Unknown Builder", Builder: "N/A",
			SubdivisionRaw: "Subdivision Z", Subdivision: "N/A", Status: "Pending", Action: notifModel.ActionUpdated},
	}
}
