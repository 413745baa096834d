package telegram

import (
	"html"
	"regexp"
	"strings"
)

var headerRegex = regexp.MustCompile(`(?m)^#{2,3}\s*(.+)$`)

// FormatAssistantHTML converts assistant markdown into Telegram HTML.
// Lines starting with ## or ### become bold headers, **bold** spans become
// <b> tags, everything else is escaped for parse_mode=HTML.
func FormatAssistantHTML(text string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}

	text = headerRegex.ReplaceAllStringFunc(text, func(line string) string {
		title := strings.TrimSpace(headerRegex.FindStringSubmatch(line)[1])
		if title != "" && !strings.HasSuffix(title, ":") {
			title += ":"
		}
		return "**" + title + "**"
	})

	var out strings.Builder
	pos := 0
	for {
		start := strings.Index(text[pos:], "**")
		if start == -1 {
			out.WriteString(html.EscapeString(text[pos:]))
			break
		}
		start += pos
		out.WriteString(html.EscapeString(text[pos:start]))

		end := strings.Index(text[start+2:], "**")
		if end == -1 {
			// Unpaired marker, keep it as literal text.
			out.WriteString(html.EscapeString(text[start:]))
			break
		}
		end += start + 2

		out.WriteString("<b>")
		out.WriteString(html.EscapeString(text[start+2 : end]))
		out.WriteString("</b>")
		pos = end + 2
	}

	return out.String()
}
