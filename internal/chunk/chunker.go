// Package chunk splits note content into ordered chunks.
//
// Markdown is split at headings first. A section larger than the token
// budget is packed paragraph by paragraph, and a paragraph that still does
// not fit is split by lines and finally by characters. Fenced code blocks
// are never split at blank lines, and headings inside them are ignored.
package chunk

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultMaxTokens is the token budget per chunk.
	DefaultMaxTokens = 512
	// CharsPerToken approximates tokens from characters.
	CharsPerToken = 4
)

var (
	headingPattern     = regexp.MustCompile(`^#{1,6}\s+\S`)
	frontmatterPattern = regexp.MustCompile(`(?s)^---\n.*?\n---(\n|$)`)
)

// Options configures a MarkdownChunker.
type Options struct {
	MaxTokens int
}

// MarkdownChunker is a stateless, concurrency-safe markdown splitter.
type MarkdownChunker struct {
	maxTokens int
}

// NewMarkdownChunker creates a chunker. Zero options use the defaults.
func NewMarkdownChunker(opts Options) *MarkdownChunker {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	return &MarkdownChunker{maxTokens: opts.MaxTokens}
}

// MaxTokens returns the per-chunk token budget.
func (c *MarkdownChunker) MaxTokens() int { return c.maxTokens }

// Chunk splits content into ordered, non-blank chunks. Blank content
// yields no chunks.
func (c *MarkdownChunker) Chunk(ctx context.Context, content string) ([]string, error) {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	if strings.TrimSpace(content) == "" {
		return nil, nil
	}

	var chunks []string
	if fm := frontmatterPattern.FindString(content); fm != "" {
		chunks = append(chunks, strings.TrimSpace(fm))
		content = content[len(fm):]
	}

	for _, sec := range sections(content) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sec = strings.TrimSpace(sec)
		if sec == "" {
			continue
		}
		if estimateTokens(sec) <= c.maxTokens {
			chunks = append(chunks, sec)
			continue
		}
		chunks = append(chunks, c.splitLarge(sec)...)
	}
	return chunks, nil
}

// sections cuts content before every heading line outside a code fence.
// Text before the first heading is its own section.
func sections(content string) []string {
	var out []string
	var cur strings.Builder
	inFence := false

	for _, line := range strings.Split(content, "\n") {
		if isFence(line) {
			inFence = !inFence
		}
		if !inFence && headingPattern.MatchString(line) && cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
		cur.WriteString(line)
		cur.WriteString("\n")
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}

func isFence(line string) bool {
	t := strings.TrimSpace(line)
	return strings.HasPrefix(t, "```") || strings.HasPrefix(t, "~~~")
}

// splitLarge packs paragraphs greedily into chunks within the budget.
func (c *MarkdownChunker) splitLarge(sec string) []string {
	var out []string
	var cur strings.Builder

	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			out = append(out, s)
		}
		cur.Reset()
	}

	for _, para := range paragraphs(sec) {
		if estimateTokens(para) > c.maxTokens {
			flush()
			out = append(out, c.splitOversized(para)...)
			continue
		}
		if cur.Len() > 0 && estimateTokens(cur.String()+"\n\n"+para) > c.maxTokens {
			flush()
		}
		if cur.Len() > 0 {
			cur.WriteString("\n\n")
		}
		cur.WriteString(para)
	}
	flush()
	return out
}

// paragraphs splits on blank lines, keeping fenced blocks whole.
func paragraphs(text string) []string {
	var out []string
	var cur []string
	inFence := false

	for _, line := range strings.Split(text, "\n") {
		if isFence(line) {
			inFence = !inFence
		}
		if !inFence && strings.TrimSpace(line) == "" {
			if len(cur) > 0 {
				out = append(out, strings.Join(cur, "\n"))
				cur = nil
			}
			continue
		}
		cur = append(cur, line)
	}
	if len(cur) > 0 {
		out = append(out, strings.Join(cur, "\n"))
	}
	return out
}

// splitOversized splits a single paragraph by lines, and lines longer than
// the budget by characters.
func (c *MarkdownChunker) splitOversized(para string) []string {
	maxChars := c.maxTokens * CharsPerToken
	var out []string
	var cur strings.Builder

	for _, line := range strings.Split(para, "\n") {
		for _, piece := range splitRunes(line, maxChars) {
			if cur.Len() > 0 && utf8.RuneCountInString(cur.String())+1+utf8.RuneCountInString(piece) > maxChars {
				if strings.TrimSpace(cur.String()) != "" {
					out = append(out, cur.String())
				}
				cur.Reset()
			}
			if cur.Len() > 0 {
				cur.WriteString("\n")
			}
			cur.WriteString(piece)
		}
	}
	if strings.TrimSpace(cur.String()) != "" {
		out = append(out, cur.String())
	}
	return out
}

func splitRunes(s string, n int) []string {
	runes := []rune(s)
	if len(runes) <= n {
		return []string{s}
	}
	var out []string
	for len(runes) > n {
		out = append(out, string(runes[:n]))
		runes = runes[n:]
	}
	if len(runes) > 0 {
		out = append(out, string(runes))
	}
	return out
}

func estimateTokens(s string) int {
	return (utf8.RuneCountInString(s) + CharsPerToken - 1) / CharsPerToken
}
