package tui

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/alecthomas/chroma"
	"github.com/alecthomas/chroma/formatters"
	"github.com/alecthomas/chroma/lexers"
	"github.com/alecthomas/chroma/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// The peer's chat replies arrive as markdown (the backend writes prose with
// inline code and fenced snippets). Rendering goes markdown -> HTML ->
// terminal escapes, with chroma highlighting the fenced blocks.

var (
	mdCodeBlockRe = regexp.MustCompile(`(?s)<pre><code(?: class="language-([a-zA-Z0-9]+)")?>(.*?)</code></pre>`)
	mdInlineRe    = regexp.MustCompile(`<code>([^<]+)</code>`)
	mdHeadingRe   = regexp.MustCompile(`<h[1-6][^>]*>(.*?)</h[1-6]>`)
	mdStrongRe    = regexp.MustCompile(`<strong>(.*?)</strong>`)
	mdEmRe        = regexp.MustCompile(`<em>(.*?)</em>`)
	mdListItemRe  = regexp.MustCompile(`<li>(.*?)</li>`)
	mdTagRe       = regexp.MustCompile(`<[^>]+>`)
	mdNewlinesRe  = regexp.MustCompile(`\n{3,}`)
)

type MarkdownRenderer struct {
	md        goldmark.Markdown
	formatter chroma.Formatter
	style     *chroma.Style
	theme     Theme
}

func NewMarkdownRenderer(theme Theme) *MarkdownRenderer {
	return &MarkdownRenderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
		formatter: formatters.Get("terminal256"),
		style:     styles.Get("friendly"),
		theme:     theme,
	}
}

// Render converts markdown to styled terminal text. On any conversion error
// the raw content comes back unchanged; a chat message must never be lost to
// a rendering problem.
func (r *MarkdownRenderer) Render(content string, width int) string {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(content), &buf); err != nil {
		return content
	}
	out := buf.String()

	var fences []string
	out = mdCodeBlockRe.ReplaceAllStringFunc(out, func(m string) string {
		sub := mdCodeBlockRe.FindStringSubmatch(m)
		code := decodeEntities(sub[2])
		block := lipgloss.NewStyle().
			PaddingLeft(2).
			Render(r.Highlight(code, sub[1]))
		fences = append(fences, block)
		return fmt.Sprintf("\n{{fence-%d}}\n", len(fences)-1)
	})

	out = mdInlineRe.ReplaceAllStringFunc(out, func(m string) string {
		sub := mdInlineRe.FindStringSubmatch(m)
		return lipgloss.NewStyle().Foreground(r.theme.Peer).Render(decodeEntities(sub[1]))
	})
	out = mdHeadingRe.ReplaceAllStringFunc(out, func(m string) string {
		sub := mdHeadingRe.FindStringSubmatch(m)
		return lipgloss.NewStyle().Bold(true).Foreground(r.theme.TextPrimary).Render(mdTagRe.ReplaceAllString(sub[1], "")) + "\n"
	})
	out = mdStrongRe.ReplaceAllStringFunc(out, func(m string) string {
		sub := mdStrongRe.FindStringSubmatch(m)
		return lipgloss.NewStyle().Bold(true).Render(sub[1])
	})
	out = mdEmRe.ReplaceAllStringFunc(out, func(m string) string {
		sub := mdEmRe.FindStringSubmatch(m)
		return lipgloss.NewStyle().Italic(true).Render(sub[1])
	})
	out = mdListItemRe.ReplaceAllStringFunc(out, func(m string) string {
		sub := mdListItemRe.FindStringSubmatch(m)
		return "  • " + mdTagRe.ReplaceAllString(sub[1], "") + "\n"
	})

	out = strings.ReplaceAll(out, "</p>", "\n")
	out = strings.ReplaceAll(out, "<br>", "\n")
	out = strings.ReplaceAll(out, "<br/>", "\n")
	out = strings.ReplaceAll(out, "<br />", "\n")
	out = mdTagRe.ReplaceAllString(out, "")
	out = decodeEntities(out)

	for i, fence := range fences {
		out = strings.ReplaceAll(out, fmt.Sprintf("{{fence-%d}}", i), fence)
	}

	out = mdNewlinesRe.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}

// Highlight runs chroma over a code snippet. Also used directly by the
// editor panels for the python buffers.
func (r *MarkdownRenderer) Highlight(code, lang string) string {
	if lang == "" {
		lang = "python"
	}
	lexer := lexers.Get(lang)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}
	var buf bytes.Buffer
	if err := r.formatter.Format(&buf, r.style, iterator); err != nil {
		return code
	}
	return strings.TrimRight(buf.String(), "\n")
}

func decodeEntities(s string) string {
	for old, repl := range map[string]string{
		"&amp;":  "&",
		"&lt;":   "<",
		"&gt;":   ">",
		"&quot;": "\"",
		"&#39;":  "'",
		"&#x27;": "'",
		"&#x60;": "`",
		"&nbsp;": " ",
	} {
		s = strings.ReplaceAll(s, old, repl)
	}
	return s
}
