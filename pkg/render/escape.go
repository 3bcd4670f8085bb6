package render

import (
	"strconv"
	"strings"
)

// escapeHTML escapes text content.
func escapeHTML(s string) string {
	return escape(s, false)
}

// escapeAttr escapes an attribute value. Whitespace that could break
// attribute parsing is written as character references too.
func escapeAttr(s string) string {
	return escape(s, true)
}

func escape(s string, attr bool) string {
	if !strings.ContainsAny(s, "&<>\"'\n\r\t") {
		return s
	}

	var buf strings.Builder
	buf.Grow(len(s) + 8)
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
		case '\n', '\r', '\t':
			if attr {
				buf.WriteString("&#" + strconv.Itoa(int(r)) + ";")
			} else {
				buf.WriteRune(r)
			}
		default:
			buf.WriteRune(r)
		}
	}
	return buf.String()
}

// validTagName reports whether s can be written as an element name: an
// ASCII letter followed by anything but whitespace, '/', '>' or '<'.
func validTagName(s string) bool {
	if s == "" {
		return false
	}
	c := s[0]
	if !('a' <= c && c <= 'z' || 'A' <= c && c <= 'Z') {
		return false
	}
	for _, r := range s[1:] {
		if r <= ' ' || r == 0x7f || r == '/' || r == '>' || r == '<' {
			return false
		}
	}
	return true
}

// validAttrName reports whether s can be written as an attribute name.
// Names written unquoted must not contain whitespace, control characters,
// quotes, '<', '>', '/' or '='.
func validAttrName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r <= ' ', r >= 0x7f && r <= 0x9f:
			return false
		case r == '"', r == '\'', r == '<', r == '>', r == '/', r == '=':
			return false
		}
	}
	return true
}
