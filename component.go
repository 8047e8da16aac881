package vuego

import (
	"encoding/json"
	"html/template"
	"strings"

	"github.com/vuego-dev/vuego/pkg/ssr"
)

// componentHost builds the embed HTML for a component: a div carrying
// the hydration payload in data attributes, with the server markup
// spliced inside. The client script mounts the Vue component onto this
// element, hydrating the markup when present.
func componentHost(id string, req *ssr.Request, markup string) (template.HTML, error) {
	propsJSON, err := json.Marshal(req.Props)
	if err != nil {
		return "", err
	}
	slotsJSON, err := json.Marshal(req.Slots)
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	buf.Grow(len(markup) + 160)

	buf.WriteString(`<div id="`)
	buf.WriteString(escapeAttr(id))
	buf.WriteString(`" data-vue-name="`)
	buf.WriteString(escapeAttr(req.Name))
	buf.WriteString(`" data-vue-props="`)
	buf.WriteString(escapeAttr(string(propsJSON)))
	buf.WriteString(`"`)
	if len(req.Slots) > 0 {
		buf.WriteString(` data-vue-slots="`)
		buf.WriteString(escapeAttr(string(slotsJSON)))
		buf.WriteString(`"`)
	}
	// The client script hydrates when markup was rendered on the server
	// and does a plain mount otherwise.
	if markup != "" {
		buf.WriteString(` data-vue-ssr="true"`)
	} else {
		buf.WriteString(` data-vue-ssr="false"`)
	}
	buf.WriteString(`>`)
	buf.WriteString(markup)
	buf.WriteString(`</div>`)

	return template.HTML(buf.String()), nil
}

// escapeAttr escapes text for safe inclusion in HTML attribute values.
// In addition to the standard HTML entities, it also escapes
// whitespace characters that could break attribute parsing.
func escapeAttr(s string) string {
	var buf strings.Builder
	buf.Grow(len(s))

	for _, r := range s {
		switch r {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '"':
			buf.WriteString("&quot;")
		case '\'':
			buf.WriteString("&#39;")
		case '\n':
			buf.WriteString("&#10;")
		case '\r':
			buf.WriteString("&#13;")
		case '\t':
			buf.WriteString("&#9;")
		default:
			buf.WriteRune(r)
		}
	}

	return buf.String()
}
