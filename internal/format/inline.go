// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package format

import (
	"html"
	"strings"
)

// Inline converts **bold** and `code` markup to <strong> and <code> tags and
// escapes everything else. Unclosed markers are kept as literal text.
func Inline(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	plain := 0
	for i := 0; i < len(s); {
		switch {
		case s[i] == '`':
			if j := strings.IndexByte(s[i+1:], '`'); j > 0 {
				b.WriteString(html.EscapeString(s[plain:i]))
				b.WriteString("<code>")
				b.WriteString(html.EscapeString(s[i+1 : i+1+j]))
				b.WriteString("</code>")
				i += j + 2
				plain = i
				continue
			}

		case strings.HasPrefix(s[i:], "**"):
			if j := strings.Index(s[i+2:], "**"); j > 0 {
				b.WriteString(html.EscapeString(s[plain:i]))
				b.WriteString("<strong>")
				b.WriteString(Inline(s[i+2 : i+2+j]))
				b.WriteString("</strong>")
				i += j + 4
				plain = i
				continue
			}
		}
		i++
	}
	b.WriteString(html.EscapeString(s[plain:]))
	return b.String()
}

// StripTags removes the inline tags produced by Inline and unescapes the
// result, yielding the plain text a terminal can print.
func StripTags(s string) string {
	r := strings.NewReplacer("<strong>", "", "</strong>", "", "<code>", "", "</code>", "")
	return html.UnescapeString(r.Replace(s))
}
