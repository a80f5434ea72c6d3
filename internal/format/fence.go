// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package format

import "strings"

// fence is the three-backtick delimiter that opens and closes a code block.
const fence = "```"

// Span is one complete fenced code block located in a full text.
// Start is the byte offset of the opening fence's first backtick; End is the
// offset just past the closing fence.
type Span struct {
	Start    int
	End      int
	Language string
	Content  string
}

// ScanFences locates every complete fenced code block in text, in order.
//
// An opening fence is three backticks at the start of a line, optionally
// preceded by spaces or tabs, followed by an optional language tag. The block
// closes at the next three backticks anywhere after the opening line. Blocks
// without a closing fence are left as ordinary text, and blocks whose content
// is blank are dropped.
func ScanFences(text string) []Span {
	var spans []Span
	pos := 0
	for pos < len(text) {
		lineEnd := strings.IndexByte(text[pos:], '\n')
		if lineEnd < 0 {
			// A fence on the final line has no body and cannot close.
			break
		}
		lineEnd += pos

		line := text[pos:lineEnd]
		indent := len(line) - len(strings.TrimLeft(line, " \t"))
		if !strings.HasPrefix(line[indent:], fence) {
			pos = lineEnd + 1
			continue
		}

		start := pos + indent
		bodyStart := lineEnd + 1
		closeAt := strings.Index(text[bodyStart:], fence)
		if closeAt < 0 {
			// Unterminated; no later fence can exist either.
			break
		}
		closeAt += bodyStart
		end := closeAt + len(fence)

		content := trimContent(text[bodyStart:closeAt])
		if strings.TrimSpace(content) != "" {
			spans = append(spans, Span{
				Start:    start,
				End:      end,
				Language: infoLanguage(line[indent+len(fence):]),
				Content:  content,
			})
		}

		// Resume at the line after the closing fence.
		next := strings.IndexByte(text[end:], '\n')
		if next < 0 {
			break
		}
		pos = end + next + 1
	}
	return spans
}

// infoLanguage returns the first word of a fence info string.
func infoLanguage(info string) string {
	fields := strings.Fields(info)
	if len(fields) == 0 {
		return ""
	}
	return strings.Trim(fields[0], "`{}.")
}

// trimContent drops the leading line break and trailing whitespace of a block
// body while keeping the indentation of its first line.
func trimContent(body string) string {
	body = strings.TrimLeft(body, "\r\n")
	return strings.TrimRight(body, " \t\r\n")
}

// reached reports whether the opening fence of sp has been fully revealed.
// One or two visible backticks do not count, so a half-typed fence is held
// back instead of flashing as literal characters: with "Intro\n``" revealed
// only the Intro paragraph is formatted.
func reached(sp Span, revealed string) bool {
	return len(revealed) >= sp.Start+len(fence) &&
		revealed[sp.Start:sp.Start+len(fence)] == fence
}
