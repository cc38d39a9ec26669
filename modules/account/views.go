package account

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/a-h/templ"

	"github.com/dmitrymomot/magicauth/handler"
)

// ErrorPage is a minimal standalone error page for browser requests.
func ErrorPage(p handler.ErrorPageParams) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		title := http.StatusText(p.StatusCode)
		if title == "" {
			title = "Error"
		}
		_, err := fmt.Fprintf(w, `<!doctype html>
<html lang="en">
<head><meta charset="utf-8"><title>%[1]s</title></head>
<body>
<main>
<h1>%[1]s</h1>
<p>%[2]s</p>
<p><a href="%[3]s">Try again</a></p>
<p><small>Request ID: %[4]s</small></p>
</main>
</body>
</html>
`,
			templ.EscapeString(title),
			templ.EscapeString(p.Error),
			templ.EscapeString(string(templ.URL(p.RetryURL))),
			templ.EscapeString(p.RequestID),
		)
		return err
	})
}
