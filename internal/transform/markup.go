package transform

import (
	"bytes"
	"context"
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/bindery/internal/errors"
)

const xhtmlNamespace = "http://www.w3.org/1999/xhtml"

type xhtmlTransform struct{}

// XHTML re-serializes loose HTML markup as the stricter XHTML form packaged
// builds require: XML declaration, xhtml namespace on the root element, and
// internal .html links rewritten to .xhtml. Development preview serves the
// loose form directly, so this applies outside development only.
func XHTML() Transform {
	return &xhtmlTransform{}
}

func (t *xhtmlTransform) Name() string   { return "xhtml" }
func (t *xhtmlTransform) Modes() ModeSet { return ProductionOnly }

func (t *xhtmlTransform) Apply(_ context.Context, f *File) error {
	doc, err := html.Parse(bytes.NewReader(f.Data))
	if err != nil {
		return errors.Wrap(err, errors.CategoryTransform, errors.SeverityError, "failed to parse markup").
			WithContext("file", f.Rel)
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "html":
				ensureAttr(n, "xmlns", xhtmlNamespace)
			case "a", "link":
				rewriteAttr(n, "href")
			case "img", "script":
				rewriteAttr(n, "src")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	var buf bytes.Buffer
	buf.WriteString("<?xml version=\"1.0\" encoding=\"utf-8\"?>\n")
	if err := html.Render(&buf, doc); err != nil {
		return errors.Wrap(err, errors.CategoryTransform, errors.SeverityError, "failed to serialize markup").
			WithContext("file", f.Rel)
	}
	f.Data = buf.Bytes()
	return nil
}

func ensureAttr(n *html.Node, key, value string) {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: value})
}

func rewriteAttr(n *html.Node, key string) {
	for i, attr := range n.Attr {
		if attr.Key == key {
			n.Attr[i].Val = rewriteInternalLink(attr.Val)
		}
	}
}

// rewriteInternalLink maps relative .html references onto the packaged
// .xhtml names, preserving any query or fragment suffix. Absolute URLs are
// left untouched.
func rewriteInternalLink(href string) string {
	if strings.Contains(href, "://") || strings.HasPrefix(href, "//") {
		return href
	}
	base := href
	suffix := ""
	for _, sep := range []string{"#", "?"} {
		if idx := strings.Index(base, sep); idx >= 0 {
			suffix = base[idx:] + suffix
			base = base[:idx]
		}
	}
	if strings.HasSuffix(base, ".html") {
		base = strings.TrimSuffix(base, ".html") + ".xhtml"
	}
	return base + suffix
}
