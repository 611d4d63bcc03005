package gmail

import (
	"encoding/base64"
	"io"
	"mime/quotedprintable"
	"strings"

	"golang.org/x/net/html"
	"google.golang.org/api/gmail/v1"
)

// ExtractPlainText extracts plain text content from a Gmail message
func ExtractPlainText(msg *gmail.Message) string {
	if msg.Payload == nil {
		return ""
	}

	return extractTextFromPart(msg.Payload)
}

func extractTextFromPart(part *gmail.MessagePart) string {
	if part == nil {
		return ""
	}

	// If this part has text content
	if part.Body != nil && part.Body.Data != "" {
		data, err := base64.URLEncoding.DecodeString(part.Body.Data)
		if err != nil {
			return ""
		}

		// Check if it's quoted-printable encoded
		if part.MimeType == "text/plain" {
			// Try to decode quoted-printable
			decoded, err := io.ReadAll(quotedprintable.NewReader(strings.NewReader(string(data))))
			if err == nil {
				return string(decoded)
			}
			return string(data)
		}
	}

	// Recursively check parts
	for _, p := range part.Parts {
		if text := extractTextFromPart(p); text != "" {
			return text
		}
	}

	return ""
}

// ExtractHTML extracts HTML content from a Gmail message
func ExtractHTML(msg *gmail.Message) string {
	if msg.Payload == nil {
		return ""
	}
	return extractHTMLFromPart(msg.Payload)
}

func extractHTMLFromPart(part *gmail.MessagePart) string {
	if part == nil {
		return ""
	}

	// If this part has html content
	if part.Body != nil && part.Body.Data != "" && strings.EqualFold(part.MimeType, "text/html") {
		data, err := base64.URLEncoding.DecodeString(part.Body.Data)
		if err != nil {
			return ""
		}
		// Try to decode quoted-printable just in case
		decoded, err := io.ReadAll(quotedprintable.NewReader(strings.NewReader(string(data))))
		if err == nil {
			return string(decoded)
		}
		return string(data)
	}

	// Recursively check parts
	for _, p := range part.Parts {
		if html := extractHTMLFromPart(p); html != "" {
			return html
		}
	}

	return ""
}

// HTMLToText reduces an HTML email body to plain text so the extraction
// heuristics can run over it. Script and style subtrees are skipped; block
// elements become line breaks.
func HTMLToText(htmlStr string) string {
	if strings.TrimSpace(htmlStr) == "" {
		return ""
	}
	doc, err := html.Parse(strings.NewReader(htmlStr))
	if err != nil {
		return ""
	}

	var b strings.Builder
	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if text := strings.TrimSpace(n.Data); text != "" {
				if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
					b.WriteByte(' ')
				}
				b.WriteString(text)
			}
		case html.ElementNode:
			tag := strings.ToLower(n.Data)
			if tag == "script" || tag == "style" || tag == "head" {
				return
			}
			switch tag {
			case "p", "div", "br", "tr", "li", "h1", "h2", "h3", "h4", "h5", "h6":
				if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
					b.WriteByte('\n')
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(doc)

	return strings.TrimSpace(b.String())
}
