package index

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStage_String(t *testing.T) {
	assert.Equal(t, "scan", StageScan.String())
	assert.Equal(t, "snapshot", StageSnapshot.String())
	assert.Equal(t, "diff", StageDiff.String())
	assert.Equal(t, "delete", StageDelete.String())
	assert.Equal(t, "insert", StageInsert.String())
	assert.Equal(t, "complete", StageComplete.String())
	assert.Equal(t, "unknown", Stage(99).String())
}

func TestRun_EmitDropsWhenFull(t *testing.T) {
	run := newRun(2)

	run.emit(ProgressEvent{Stage: StageInsert, Fraction: 0.25})
	run.emit(ProgressEvent{Stage: StageInsert, Fraction: 0.5})
	run.emit(ProgressEvent{Stage: StageInsert, Fraction: 0.75})
	run.finish(ProgressEvent{Stage: StageComplete, Fraction: 1}, Result{Files: 1}, nil)

	var got []float64
	var last ProgressEvent
	for ev := range run.Events() {
		got = append(got, ev.Fraction)
		last = ev
	}
	assert.Equal(t, []float64{0.5, 1}, got)
	assert.True(t, last.Done)

	res, err := run.Wait()
	require.NoError(t, err)
	assert.Equal(t, 1, res.Files)
}

func TestRun_FinishOnce(t *testing.T) {
	runErr := errors.New("boom")
	run := newRun(0)

	run.finish(ProgressEvent{Stage: StageDelete}, Result{}, runErr)
	run.finish(ProgressEvent{Stage: StageComplete, Fraction: 1}, Result{Files: 9}, nil)

	ev, ok := <-run.Events()
	require.True(t, ok)
	assert.Equal(t, StageDelete, ev.Stage)
	assert.True(t, ev.Done)
	assert.Same(t, runErr, ev.Err)
	_, ok = <-run.Events()
	assert.False(t, ok)

	<-run.Done()
	res, err := run.Wait()
	assert.Same(t, runErr, err)
	assert.Equal(t, 0, res.Files)
}
