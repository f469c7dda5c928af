// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/russross/blackfriday"

	"github.com/jeranaias/parley-tui/internal/model"
)

// Markdown features enabled for message bodies.
const (
	markdownExtensions = blackfriday.EXTENSION_NO_INTRA_EMPHASIS |
		blackfriday.EXTENSION_TABLES |
		blackfriday.EXTENSION_FENCED_CODE |
		blackfriday.EXTENSION_AUTOLINK |
		blackfriday.EXTENSION_STRIKETHROUGH |
		blackfriday.EXTENSION_SPACE_HEADERS |
		blackfriday.EXTENSION_HARD_LINE_BREAK

	// Raw HTML in a message is dropped, never passed through.
	markdownHTMLFlags = blackfriday.HTML_SKIP_HTML |
		blackfriday.HTML_SKIP_STYLE |
		blackfriday.HTML_SAFELINK |
		blackfriday.HTML_NOFOLLOW_LINKS |
		blackfriday.HTML_HREF_TARGET_BLANK
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter exports transcripts to a standalone HTML page with embedded CSS.
type HTMLExporter struct {
	options *Options
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{options: opts}
}

// Export converts a transcript to HTML.
func (e *HTMLExporter) Export(tr *model.Transcript) ([]byte, error) {
	if err := validate(tr); err != nil {
		return nil, err
	}

	title := tr.Title
	if title == "" {
		title = "新对话"
	}
	theme := e.options.Theme
	if theme != "light" {
		theme = "dark"
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html lang=\"zh-CN\">\n<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	fmt.Fprintf(&sb, "    <title>%s</title>\n", html.EscapeString(title))
	sb.WriteString("    <meta name=\"generator\" content=\"parley\">\n")
	sb.WriteString(pageCSS)
	sb.WriteString("</head>\n")
	fmt.Fprintf(&sb, "<body class=\"%s-theme\">\n<div class=\"container\">\n", theme)

	sb.WriteString("<header class=\"header\">\n")
	fmt.Fprintf(&sb, "    <h1>%s</h1>\n", html.EscapeString(title))
	if e.options.IncludeMetadata {
		sb.WriteString("    <div class=\"metadata\">\n")
		if tr.SessionID != "" {
			fmt.Fprintf(&sb, "        <span>会话: <code>%s</code></span>\n", html.EscapeString(tr.SessionID))
		}
		fmt.Fprintf(&sb, "        <span>消息: %d</span>\n", len(tr.Messages))
		if !tr.ExportedAt.IsZero() {
			fmt.Fprintf(&sb, "        <span>导出于: <time datetime=\"%s\">%s</time></span>\n",
				tr.ExportedAt.Format(time.RFC3339), formatTimestamp(tr.ExportedAt))
		}
		sb.WriteString("    </div>\n")
	}
	sb.WriteString("</header>\n<main class=\"conversation\">\n")

	for _, msg := range tr.Messages {
		e.renderMessage(&sb, msg)
	}

	sb.WriteString("</main>\n</div>\n</body>\n</html>\n")
	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string {
	return "text/html"
}

func (e *HTMLExporter) renderMessage(sb *strings.Builder, msg model.Message) {
	role := "assistant"
	if msg.IsUser() {
		role = "user"
	}
	fmt.Fprintf(sb, "<div class=\"message %s-message\">\n", role)
	fmt.Fprintf(sb, "    <div class=\"role-label\">%s</div>\n", html.EscapeString(roleLabel(msg.Role)))
	sb.WriteString("    <div class=\"message-content\">\n")
	if msg.IsUser() {
		// User input is shown literally.
		fmt.Fprintf(sb, "<p>%s</p>\n", strings.ReplaceAll(html.EscapeString(msg.Content), "\n", "<br>\n"))
	} else {
		sb.Write(e.RenderMarkdown(msg.Content))
	}
	sb.WriteString("    </div>\n</div>\n")
}

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// RenderMarkdown converts a markdown body to an HTML fragment. Fenced code
// is highlighted with the configured chroma style.
func (e *HTMLExporter) RenderMarkdown(content string) []byte {
	r := &highlightRenderer{
		Renderer: blackfriday.HtmlRenderer(markdownHTMLFlags, "", ""),
		style:    e.options.CodeStyle,
	}
	return blackfriday.Markdown([]byte(content), r, markdownExtensions)
}

// highlightRenderer is the stock HTML renderer with chroma code blocks.
type highlightRenderer struct {
	blackfriday.Renderer
	style string
}

// BlockCode renders a fenced code block.
func (r *highlightRenderer) BlockCode(out *bytes.Buffer, text []byte, infoString string) {
	lang := ""
	if fields := strings.Fields(infoString); len(fields) > 0 {
		lang = fields[0]
	}

	out.WriteString("<div class=\"code-block\">")
	if lang != "" {
		fmt.Fprintf(out, "<div class=\"code-lang\">%s</div>", html.EscapeString(lang))
	}
	if err := highlightCode(out, string(text), lang, r.style); err != nil {
		fmt.Fprintf(out, "<pre><code>%s</code></pre>", html.EscapeString(string(text)))
	}
	out.WriteString("</div>\n")
}

// highlightCode writes code as inline-styled HTML.
func highlightCode(out *bytes.Buffer, code, language, styleName string) error {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get(styleName)
	if style == nil {
		style = chromaStyles.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := chromahtml.New(chromahtml.TabWidth(4)).Format(&buf, style, iterator); err != nil {
		return err
	}
	out.Write(buf.Bytes())
	return nil
}

// =============================================================================
// EMBEDDED CSS
// =============================================================================

const pageCSS = `    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        .dark-theme {
            --bg: #1a1b26; --panel: #24283b; --text: #c0caf5; --muted: #565f89;
            --border: #414868; --user: #1f2335; --accent: #7aa2f7;
        }
        .light-theme {
            --bg: #ffffff; --panel: #f7f8fa; --text: #24292e; --muted: #6a737d;
            --border: #e1e4e8; --user: #f6f8fa; --accent: #0366d6;
        }
        body {
            font-family: -apple-system, "Segoe UI", "PingFang SC", "Microsoft YaHei", sans-serif;
            line-height: 1.6; color: var(--text); background: var(--bg); padding: 20px;
        }
        .container { max-width: 900px; margin: 0 auto; }
        .header { border-bottom: 1px solid var(--border); padding-bottom: 12px; margin-bottom: 20px; }
        .metadata { color: var(--muted); font-size: 14px; display: flex; gap: 16px; flex-wrap: wrap; }
        .message { border: 1px solid var(--border); border-radius: 8px; padding: 12px 16px; margin-bottom: 16px; }
        .user-message { background: var(--user); }
        .assistant-message { background: var(--panel); }
        .role-label { font-weight: 600; color: var(--accent); margin-bottom: 6px; }
        .message-content p { margin: 6px 0; }
        .message-content code { font-family: "Fira Code", monospace; }
        .code-block { margin: 10px 0; border-radius: 6px; overflow: hidden; }
        .code-block pre { padding: 12px; overflow-x: auto; }
        .code-lang { font-size: 12px; color: var(--muted); padding: 4px 12px; background: var(--border); }
        table { border-collapse: collapse; margin: 8px 0; }
        th, td { border: 1px solid var(--border); padding: 4px 8px; }
    </style>
`
