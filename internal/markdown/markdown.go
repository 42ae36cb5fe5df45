// Package markdown formats text for Discord messages.
package markdown

import (
	"strings"
	"unicode/utf8"
)

// MaxMessageLength is the longest content Discord accepts in one message.
const MaxMessageLength = 2000

var escaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"~", `\~`,
	"`", "\\`",
	"|", `\|`,
	">", `\>`,
	"#", `\#`,
	"[", `\[`,
	"]", `\]`,
	"@", "@\u200b",
)

// Escape neutralises Discord markdown and mentions in text.
func Escape(text string) string {
	text = strings.ToValidUTF8(text, "")
	return escaper.Replace(text)
}

// CodeBlock wraps text in a fenced block. Fences inside text are broken so
// the block cannot be closed early.
func CodeBlock(lang, text string) string {
	text = strings.ToValidUTF8(text, "")
	text = strings.ReplaceAll(text, "```", "`\u200b``")
	return "```" + lang + "\n" + text + "\n```"
}

// Split cuts text into chunks of at most limit bytes, preferring to break on
// a newline. A hard cut never splits a UTF-8 sequence, a backslash escape or a
// ** marker.
func Split(text string, limit int) []string {
	if limit <= 0 {
		limit = MaxMessageLength
	}
	if text == "" {
		return nil
	}

	var chunks []string
	for len(text) > limit {
		cut := strings.LastIndexByte(text[:limit], '\n')
		if cut <= 0 {
			cut = limit
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
			cut = keepMarkup(text, cut)
			if cut == 0 {
				_, size := utf8.DecodeRuneInString(text)
				cut = size
			}
		}
		chunks = append(chunks, text[:cut])
		text = strings.TrimPrefix(text[cut:], "\n")
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}

// keepMarkup moves cut back so that an escaped character stays with its
// backslash and a ** marker stays whole.
func keepMarkup(text string, cut int) int {
	backslashes := 0
	for i := cut - 1; i >= 0 && text[i] == '\\'; i-- {
		backslashes++
	}
	if backslashes%2 == 1 {
		cut--
	}
	if cut > 0 && text[cut-1] == '*' && text[cut] == '*' {
		cut--
	}
	return cut
}
