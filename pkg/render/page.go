package render

import (
	"fmt"
	"io"

	"github.com/vango-dev/vtree/pkg/host/memhost"
)

// PageData describes a standalone HTML document wrapping a host tree.
type PageData struct {
	// Title is the page title.
	Title string

	// Lang is the html lang attribute. Defaults to "en".
	Lang string

	// Styles are inline stylesheets added to the head.
	Styles []string

	// Scripts are inline scripts added at the end of the body.
	Scripts []string

	// Body is the tree rendered inside <body>.
	Body *memhost.Node
}

// RenderPage writes a complete HTML document.
func (r *Renderer) RenderPage(w io.Writer, page PageData) error {
	lang := page.Lang
	if lang == "" {
		lang = "en"
	}

	if _, err := fmt.Fprintf(w, "<!DOCTYPE html>\n<html lang=\"%s\">\n<head>\n", escapeAttr(lang)); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "  <meta charset=\"utf-8\">\n"); err != nil {
		return err
	}
	if page.Title != "" {
		if _, err := fmt.Fprintf(w, "  <title>%s</title>\n", escapeHTML(page.Title)); err != nil {
			return err
		}
	}
	for _, style := range page.Styles {
		if _, err := fmt.Fprintf(w, "  <style>%s</style>\n", style); err != nil {
			return err
		}
	}
	if _, err := io.WriteString(w, "</head>\n<body>\n"); err != nil {
		return err
	}

	if err := r.RenderHost(w, page.Body); err != nil {
		return err
	}
	if !r.config.Pretty && page.Body != nil {
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}

	for _, script := range page.Scripts {
		if _, err := fmt.Fprintf(w, "  <script>%s</script>\n", script); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "</body>\n</html>\n")
	return err
}
