package steps

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"document-converter/internal/pipeline"
	"document-converter/internal/runner"
)

const (
	metaPrefix    = "convert-"
	metaDelimiter = ";"
)

// metaOptions turns <meta name="convert-X" content="V"> tags into renderer
// flags: --X followed by V split on ";". A repeated name keeps its first
// position and takes the last value.
func metaOptions(content []byte) ([]string, error) {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}

	var order []string
	values := make(map[string][]string)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Meta {
			name, value, hasContent := metaAttrs(n)
			if flag, ok := strings.CutPrefix(name, metaPrefix); ok && flag != "" {
				if _, seen := values[flag]; !seen {
					order = append(order, flag)
				}
				values[flag] = splitMetaValue(value, hasContent)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	var opts []string
	for _, flag := range order {
		opts = append(opts, "--"+flag)
		opts = append(opts, values[flag]...)
	}
	return opts, nil
}

func metaAttrs(n *html.Node) (name, content string, hasContent bool) {
	for _, a := range n.Attr {
		switch strings.ToLower(a.Key) {
		case "name":
			name = a.Val
		case "content":
			content = a.Val
			hasContent = true
		}
	}
	return name, content, hasContent
}

// splitMetaValue drops trailing empty fields, so "a;" yields one argument.
func splitMetaValue(value string, hasContent bool) []string {
	value = strings.TrimSpace(value)
	if !hasContent || value == "" {
		return []string{}
	}
	parts := strings.Split(value, metaDelimiter)
	for len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}

func (l *Library) htmlToPDF(ctx context.Context, st *pipeline.State, s HTMLToPDF) error {
	step := s.StepName()
	if err := expect(st, "text/html"); err != nil {
		return err
	}

	opts, err := metaOptions(st.Content())
	if err != nil {
		return fmt.Errorf("%s: parse html: %w", step, err)
	}
	input, err := st.ContentFile(".html")
	if err != nil {
		return err
	}
	target := st.TempPath("render-", ".pdf")

	cmd := runner.Command{
		Name:   l.tools.Wkhtmltopdf,
		Args:   wkhtmltopdfArgs(opts, splitParams(l.tools.WkhtmltopdfParams, s.Params), input, target),
		Binary: true,
	}
	if _, err := l.run(ctx, step, cmd, "PDF converter rejected the request"); err != nil {
		return err
	}

	data, err := consume(target)
	if err != nil {
		return fmt.Errorf("%s: read output: %w", step, err)
	}
	return st.SetContent(data)
}

func (l *Library) htmlToText(st *pipeline.State) error {
	if err := expect(st, "text/html"); err != nil {
		return err
	}
	text, err := HTMLText(st.Content())
	if err != nil {
		return fmt.Errorf("%s: %w", HTMLToText{}.StepName(), err)
	}
	return st.SetContent([]byte(text))
}

// HTMLText extracts readable text from an HTML document. Block elements start
// new lines; script, style and similar elements are skipped.
func HTMLText(content []byte) (string, error) {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return "", err
	}

	var lines []string
	var current strings.Builder
	flush := func() {
		if line := strings.Join(strings.Fields(current.String()), " "); line != "" {
			lines = append(lines, line)
		}
		current.Reset()
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			current.WriteString(n.Data)
			current.WriteByte(' ')
			return
		case html.ElementNode:
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript, atom.Template, atom.Head:
				return
			case atom.Br:
				flush()
				return
			}
		}

		block := n.Type == html.ElementNode && isBlock(n.DataAtom)
		if block {
			flush()
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			flush()
		}
	}
	walk(doc)
	flush()

	if len(lines) == 0 {
		return "", nil
	}
	return strings.Join(lines, "\n") + "\n", nil
}

func isBlock(a atom.Atom) bool {
	switch a {
	case atom.P, atom.Div, atom.Section, atom.Article, atom.Header, atom.Footer,
		atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
		atom.Ul, atom.Ol, atom.Li, atom.Table, atom.Tr, atom.Blockquote,
		atom.Pre, atom.Body, atom.Hr, atom.Dl, atom.Dt, atom.Dd:
		return true
	}
	return false
}
