// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/jeranaias/council-tui/internal/model"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

const (
	// HTMLMimeType is the MIME type of HTML artifacts.
	HTMLMimeType = "text/html"

	// HTMLExtension replaces the transcript extension for HTML artifacts.
	HTMLExtension = ".html"
)

// ErrEmptyConversation is returned when a conversation has nothing to render.
var ErrEmptyConversation = errors.New("conversation has no messages")

// markdown renders transcripts. Raw HTML in model answers is dropped, so a
// response cannot inject script into the page.
var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// HTML renders the Markdown transcript as a standalone page with embedded
// CSS and a light/dark toggle.
func HTML(conv *model.Conversation) ([]byte, error) {
	if conv == nil {
		return nil, ErrNilConversation
	}
	if len(conv.Messages) == 0 {
		return nil, ErrEmptyConversation
	}

	var body bytes.Buffer
	if err := markdown.Convert([]byte(Transcript(conv)), &body); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}

	title := conv.Title
	if title == "" {
		title = UntitledTitle
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n")
	sb.WriteString("<html lang=\"en\">\n")
	sb.WriteString("<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	sb.WriteString(fmt.Sprintf("    <title>%s</title>\n", html.EscapeString(title)))
	sb.WriteString("    <meta name=\"generator\" content=\"council\">\n")
	if !conv.CreatedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("    <meta name=\"date\" content=\"%s\">\n", conv.CreatedAt.Format(time.RFC3339)))
	}
	sb.WriteString(pageCSS)
	sb.WriteString("</head>\n")
	sb.WriteString("<body class=\"dark-theme\">\n")
	sb.WriteString("    <button class=\"theme-toggle\" onclick=\"toggleTheme()\" title=\"Toggle theme\">[Theme]</button>\n")
	sb.WriteString("    <main class=\"container\">\n")
	sb.Write(body.Bytes())
	sb.WriteString("    </main>\n")
	sb.WriteString(pageScript)
	sb.WriteString("</body>\n")
	sb.WriteString("</html>\n")

	return []byte(sb.String()), nil
}

// NewHTMLArtifact packages the HTML export for download. The filename follows
// the transcript rule with a .html extension.
func NewHTMLArtifact(conv *model.Conversation) (Artifact, error) {
	data, err := HTML(conv)
	if err != nil {
		return Artifact{}, err
	}
	name := strings.TrimSuffix(Filename(conv.Title), MarkdownExtension) + HTMLExtension
	return Artifact{Filename: name, MimeType: HTMLMimeType, Content: data}, nil
}

// =============================================================================
// EMBEDDED ASSETS
// =============================================================================

const pageCSS = `    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }

        :root {
            --font-sans: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif;
            --font-mono: "SF Mono", "Monaco", "Inconsolata", "Fira Code", "Source Code Pro", monospace;
        }

        .dark-theme {
            --bg-primary: #1a1b26;
            --bg-secondary: #24283b;
            --text-primary: #c0caf5;
            --text-muted: #565f89;
            --border-color: #414868;
            --code-bg: #1a1b26;
            --accent-blue: #7aa2f7;
            --accent-purple: #bb9af7;
        }

        .light-theme {
            --bg-primary: #ffffff;
            --bg-secondary: #f7f8fa;
            --text-primary: #24292e;
            --text-muted: #6a737d;
            --border-color: #e1e4e8;
            --code-bg: #f6f8fa;
            --accent-blue: #0366d6;
            --accent-purple: #6f42c1;
        }

        body {
            font-family: var(--font-sans);
            line-height: 1.6;
            color: var(--text-primary);
            background: var(--bg-primary);
            padding: 20px;
        }

        .container {
            max-width: 900px;
            margin: 0 auto;
            padding: 32px;
            background: var(--bg-secondary);
            border-radius: 12px;
        }

        h1 { color: var(--accent-purple); margin-bottom: 8px; }
        h2 { color: var(--accent-blue); margin: 24px 0 12px; }
        h3 { margin: 16px 0 8px; }
        p, ol, ul { margin-bottom: 12px; }
        ol, ul { padding-left: 24px; }
        em { color: var(--text-muted); }
        hr { border: none; border-top: 1px solid var(--border-color); margin: 24px 0; }

        pre, code { font-family: var(--font-mono); background: var(--code-bg); border-radius: 4px; }
        code { padding: 2px 4px; }
        pre { padding: 12px; overflow-x: auto; margin-bottom: 12px; }
        pre code { padding: 0; }

        .theme-toggle {
            position: fixed;
            top: 16px;
            right: 16px;
            padding: 4px 8px;
            background: var(--bg-secondary);
            color: var(--text-primary);
            border: 1px solid var(--border-color);
            border-radius: 6px;
            cursor: pointer;
        }

        @media print {
            .theme-toggle { display: none; }
            body { padding: 0; }
        }
    </style>
`

const pageScript = `    <script>
        function toggleTheme() {
            const body = document.body;
            const next = body.classList.contains('dark-theme') ? 'light' : 'dark';
            body.classList.remove('dark-theme', 'light-theme');
            body.classList.add(next + '-theme');
            localStorage.setItem('theme', next);
        }

        const savedTheme = localStorage.getItem('theme');
        if (savedTheme) {
            document.body.classList.remove('dark-theme', 'light-theme');
            document.body.classList.add(savedTheme + '-theme');
        }
    </script>
`
