package enex

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// allowedTags maps every retained tag to its attribute allow-list. Tags not
// listed here and not in dangerousTags are unwrapped: the tag is discarded
// and its children are hoisted into the parent.
var allowedTags = map[string][]string{
	"en-note":    nil,
	"en-todo":    {"checked"},
	"en-media":   {"hash", "type", "width", "height", "alt"},
	"p":          nil,
	"div":        nil,
	"span":       nil,
	"br":         nil,
	"a":          {"href", "name", "target", "rel", "title"},
	"ul":         nil,
	"ol":         nil,
	"li":         nil,
	"strong":     nil,
	"em":         nil,
	"table":      nil,
	"thead":      nil,
	"tbody":      nil,
	"tr":         nil,
	"th":         nil,
	"td":         nil,
	"img":        {"src", "alt", "title", "width", "height"},
	"hr":         nil,
	"blockquote": nil,
	"pre":        nil,
	"code":       nil,
	"h1":         nil,
	"h2":         nil,
	"h3":         nil,
	"h4":         nil,
	"h5":         nil,
	"h6":         nil,
}

// dangerousTags are removed together with their entire subtree.
var dangerousTags = map[string]struct{}{
	"script":   {},
	"style":    {},
	"iframe":   {},
	"frame":    {},
	"frameset": {},
	"noframes": {},
	"object":   {},
	"embed":    {},
	"applet":   {},
	"base":     {},
	"link":     {},
	"meta":     {},
	"form":     {},
	"input":    {},
	"button":   {},
	"textarea": {},
	"select":   {},
	"option":   {},
	"noscript": {},
}

var voidTags = map[string]struct{}{
	"br":  {},
	"hr":  {},
	"img": {},
}

var linkSchemes = map[string]struct{}{
	"http":   {},
	"https":  {},
	"mailto": {},
}

var imageSchemes = map[string]struct{}{
	"http":   {},
	"https":  {},
	"mailto": {},
	"data":   {},
}

var (
	xmlPreamblePattern = regexp.MustCompile(`(?is)<\?xml.*?\?>`)
	doctypePattern     = regexp.MustCompile(`(?is)<!doctype.*?>`)
	// The HTML parser ignores the self-closing slash on unknown elements,
	// which would swallow everything after an <en-media .../> marker.
	selfClosingEnTagPattern = regexp.MustCompile(`(?is)<(en-[a-z0-9-]+)([^<>]*?)/>`)
)

// Sanitize removes executable and unsafe content from an ENML body while
// preserving the presentation allow-list. It never fails: unparseable input
// degrades to a heavily pruned but safe fragment. The function is
// deterministic and idempotent.
func Sanitize(raw string) string {
	normalized := xmlPreamblePattern.ReplaceAllString(raw, "")
	normalized = doctypePattern.ReplaceAllString(normalized, "")
	normalized = selfClosingEnTagPattern.ReplaceAllString(normalized, "<$1$2></$1>")

	container := &html.Node{Type: html.ElementNode, DataAtom: atom.Div, Data: "div"}
	nodes, err := html.ParseFragment(strings.NewReader(normalized), container)
	if err != nil {
		return html.EscapeString(stripMarkup(normalized))
	}

	var builder strings.Builder
	for _, node := range nodes {
		renderSanitized(&builder, node)
	}
	return builder.String()
}

func renderSanitized(builder *strings.Builder, node *html.Node) {
	switch node.Type {
	case html.TextNode:
		builder.WriteString(html.EscapeString(node.Data))
		return
	case html.ElementNode:
	default:
		// Comments, doctypes and anything else are dropped.
		return
	}

	tag := strings.ToLower(node.Data)
	if _, dangerous := dangerousTags[tag]; dangerous {
		return
	}
	allowedAttrs, allowed := allowedTags[tag]
	if !allowed {
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			renderSanitized(builder, child)
		}
		return
	}

	builder.WriteByte('<')
	builder.WriteString(tag)
	for _, attr := range node.Attr {
		key := strings.ToLower(attr.Key)
		if attr.Namespace != "" || !attrAllowed(allowedAttrs, key) {
			continue
		}
		if key == "href" && !safeURL(attr.Val, linkSchemes) {
			continue
		}
		if key == "src" && !safeURL(attr.Val, imageSchemes) {
			continue
		}
		builder.WriteByte(' ')
		builder.WriteString(key)
		builder.WriteString(`="`)
		builder.WriteString(html.EscapeString(attr.Val))
		builder.WriteByte('"')
	}
	if _, void := voidTags[tag]; void {
		builder.WriteString("/>")
		return
	}
	builder.WriteByte('>')
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		renderSanitized(builder, child)
	}
	builder.WriteString("</")
	builder.WriteString(tag)
	builder.WriteByte('>')
}

func attrAllowed(allowed []string, key string) bool {
	for _, candidate := range allowed {
		if candidate == key {
			return true
		}
	}
	return false
}

// safeURL accepts fragment and relative references outright; anything with a
// scheme prefix must be on the allow-list. Control characters are stripped
// before scheme detection so obfuscated schemes cannot slip through.
func safeURL(value string, schemes map[string]struct{}) bool {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return true
	}
	if strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "/") ||
		strings.HasPrefix(trimmed, "./") || strings.HasPrefix(trimmed, "../") {
		return true
	}
	compact := strings.Map(func(r rune) rune {
		if r <= 0x20 {
			return -1
		}
		return r
	}, strings.ToLower(trimmed))
	for index, r := range compact {
		switch r {
		case ':':
			_, ok := schemes[compact[:index]]
			return ok
		case '/', '?', '#':
			// Relative reference, no scheme before the path.
			return true
		}
	}
	// No recognizable scheme prefix, treat as a relative reference.
	return true
}
