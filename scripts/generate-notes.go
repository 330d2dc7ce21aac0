//go:build ignore

// Package main generates a synthetic notes directory for benchmarking resync.
// Usage: go run scripts/generate-notes.go -notes 1000 -output testdata/notes
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var (
	numNotes  = flag.Int("notes", 1000, "Number of notes to generate")
	outputDir = flag.String("output", "testdata/notes", "Output directory")
	seed      = flag.Int64("seed", 42, "Random seed for reproducibility")
	maxSecs   = flag.Int("sections", 6, "Maximum sections per note")
)

var (
	folders = []string{"journal", "projects", "reading", "meetings", "ideas", "archive/2023"}
	topics  = []string{
		"garden", "budget", "roadmap", "recipes", "travel", "hiring",
		"release", "migration", "onboarding", "retro", "reading list", "workout",
	}
	words = strings.Fields(`the a plan review notes follow up draft call email
		schedule decide ship fix write read test measure compare list idea
		question answer risk owner date week month quarter team project`)
)

func main() {
	flag.Parse()
	rng := rand.New(rand.NewSource(*seed))

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create output dir: %v\n", err)
		os.Exit(1)
	}

	start := time.Now()
	var chunks int
	for i := 0; i < *numNotes; i++ {
		rel, content, sections := generateNote(rng, i)
		path := filepath.Join(*outputDir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "failed to create %s: %v\n", filepath.Dir(path), err)
			os.Exit(1)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write %s: %v\n", path, err)
			os.Exit(1)
		}
		chunks += sections
	}

	fmt.Printf("Generated %d notes (~%d sections) in %s (%s)\n",
		*numNotes, chunks, *outputDir, time.Since(start).Round(time.Millisecond))
}

// generateNote returns a relative path, markdown content and section count.
// Every tenth note has an apostrophe in its name, and every twentieth is
// empty.
func generateNote(rng *rand.Rand, i int) (string, string, int) {
	folder := folders[rng.Intn(len(folders))]
	topic := topics[rng.Intn(len(topics))]
	name := fmt.Sprintf("%s %04d.md", topic, i)
	if i%10 == 0 {
		name = fmt.Sprintf("%s's notes %04d.md", topic, i)
	}
	rel := filepath.Join(folder, name)
	if i%20 == 0 {
		return rel, "", 0
	}

	sections := 1 + rng.Intn(*maxSecs)
	var sb strings.Builder
	for s := 0; s < sections; s++ {
		fmt.Fprintf(&sb, "# %s %d\n\n", strings.ToUpper(topic[:1])+topic[1:], s+1)
		for p := 0; p < 1+rng.Intn(3); p++ {
			sb.WriteString(sentence(rng, 8+rng.Intn(24)))
			sb.WriteString("\n\n")
		}
	}
	return rel, sb.String(), sections
}

func sentence(rng *rand.Rand, n int) string {
	out := make([]string, n)
	for i := range out {
		out[i] = words[rng.Intn(len(words))]
	}
	out[0] = strings.ToUpper(out[0][:1]) + out[0][1:]
	return strings.Join(out, " ") + "."
}
