package embed

import (
	"context"
	"fmt"
	"hash/fnv"
	"regexp"
	"strings"
	"sync"
	"unicode"
)

// HashEmbedder maps text to a fixed-width vector by hashing words and
// character trigrams into buckets. It is deterministic, needs no model and
// keeps notes that share vocabulary close together.
type HashEmbedder struct {
	dims int

	mu     sync.RWMutex
	closed bool
}

const (
	wordWeight    = 0.7
	trigramWeight = 0.3
	trigramSize   = 3
)

var (
	wordPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

	// markdownNoise strips link targets, code fences and emphasis markers
	// so that syntax does not dominate the vector.
	markdownNoise = regexp.MustCompile("\\]\\([^)]*\\)|```[a-zA-Z]*|[#*_>`~\\[\\]|-]+")

	proseStopWords = map[string]bool{
		"a": true, "an": true, "and": true, "are": true, "as": true,
		"at": true, "be": true, "by": true, "for": true, "from": true,
		"in": true, "is": true, "it": true, "of": true, "on": true,
		"or": true, "that": true, "the": true, "this": true, "to": true,
		"was": true, "with": true,
	}
)

// NewHashEmbedder creates an embedder producing vectors of width dims.
func NewHashEmbedder(dims int) *HashEmbedder {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &HashEmbedder{dims: dims}
}

// Embed returns the unit-length vector for text. Blank text yields the
// zero vector.
func (e *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return nil, fmt.Errorf("embedder is closed")
	}
	return e.vector(text), nil
}

// EmbedBatch embeds each text in order.
func (e *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("failed to embed text %d: %w", i, err)
		}
		out[i] = vec
	}
	return out, nil
}

func (e *HashEmbedder) vector(text string) []float32 {
	vec := make([]float32, e.dims)

	clean := strings.TrimSpace(markdownNoise.ReplaceAllString(text, " "))
	if clean == "" {
		return vec
	}

	for _, w := range words(clean) {
		vec[bucket(w, e.dims)] += wordWeight
	}
	for _, g := range trigrams(clean) {
		vec[bucket(g, e.dims)] += trigramWeight
	}
	return normalize(vec)
}

func words(text string) []string {
	var out []string
	for _, w := range wordPattern.FindAllString(text, -1) {
		w = strings.ToLower(w)
		if !proseStopWords[w] {
			out = append(out, w)
		}
	}
	return out
}

// trigrams returns rune trigrams over the letters and digits of text.
func trigrams(text string) []string {
	var runes []rune
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			runes = append(runes, r)
		}
	}
	if len(runes) < trigramSize {
		return nil
	}
	out := make([]string, 0, len(runes)-trigramSize+1)
	for i := 0; i+trigramSize <= len(runes); i++ {
		out = append(out, string(runes[i:i+trigramSize]))
	}
	return out
}

func bucket(s string, size int) int {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return int(h.Sum64() % uint64(size))
}

// Dimensions returns the vector width.
func (e *HashEmbedder) Dimensions() int { return e.dims }

// ModelName identifies the scheme and width.
func (e *HashEmbedder) ModelName() string { return fmt.Sprintf("hash-%d", e.dims) }

// Close marks the embedder closed. Further calls fail.
func (e *HashEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}
