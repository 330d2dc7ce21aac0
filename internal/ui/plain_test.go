package ui

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlainRenderer_Progress(t *testing.T) {
	// Given: a plain renderer
	buf := &bytes.Buffer{}
	r := NewPlainRenderer(NewConfig(buf))
	require.NoError(t, r.Start(context.Background()))

	// When: updates arrive, some at the same percentage
	r.Progress(Update{Stage: "insert", Fraction: 0.251})
	r.Progress(Update{Stage: "insert", Fraction: 0.259})
	r.Progress(Update{Stage: "insert", Fraction: 1})

	// Then: one line per visible change, without ANSI codes
	assert.Equal(t, "[INSERT]  25%\n[INSERT] 100%\n", buf.String())
	assert.NotContains(t, buf.String(), "\x1b[")
	assert.NoError(t, r.Stop())
}

func TestPlainRenderer_Complete(t *testing.T) {
	tests := []struct {
		name    string
		summary Summary
		want    string
	}{
		{
			name:    "changes",
			summary: Summary{Files: 10, Refreshed: 2, Inserted: 7, Duration: 1500 * time.Millisecond},
			want:    "Complete: 2 of 10 notes refreshed, 7 records inserted in 1.5s\n",
		},
		{
			name:    "up to date",
			summary: Summary{Files: 3, Stored: 9, Duration: 12 * time.Millisecond},
			want:    "Up to date: 3 notes, 9 records (12ms)\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			NewPlainRenderer(NewConfig(buf)).Complete(tt.summary)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestPlainRenderer_Fail(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewPlainRenderer(NewConfig(buf))

	r.Fail("delete", errors.New("disk full"))

	assert.Equal(t, "ERROR: delete failed: disk full\n", buf.String())
}
