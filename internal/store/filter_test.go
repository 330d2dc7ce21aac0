package store

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilter_Expression(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   string
	}{
		{"all", All(), "true"},
		{"non-empty content", ContentNonEmpty(), "content != ''"},
		{"empty content", ContentEmpty(), "content = ''"},
		{"paths", NotePathIn(EncodePath("/n/it's.md"), "/n/b.md"), "notepath IN ('/n/it''s.md', '/n/b.md')"},
		{
			"conjunction",
			NotePathIn("/n/a.md").And(Predicate{Field: FieldSubNoteIndex, Op: OpEqual, Values: []any{0}}),
			"notepath IN ('/n/a.md') AND subnoteindex = 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Expression())
			assert.Equal(t, tt.want, tt.filter.String())
		})
	}
}

func TestFilter_SQLIsParameterized(t *testing.T) {
	key := EncodePath("/n/x'); DROP TABLE chunks; --.md")

	where, args, err := NotePathIn(key, "/n/b.md").SQL(columns)

	require.NoError(t, err)
	assert.Equal(t, "notepath IN (?, ?)", where)
	assert.Equal(t, []any{key, "/n/b.md"}, args)
}

func TestFilter_SQLShapes(t *testing.T) {
	where, args, err := All().SQL(columns)
	require.NoError(t, err)
	assert.Equal(t, "1 = 1", where)
	assert.Empty(t, args)

	where, args, err = ContentNonEmpty().SQL(columns)
	require.NoError(t, err)
	assert.Equal(t, "content != ?", where)
	assert.Equal(t, []any{""}, args)

	where, _, err = NotePathIn().SQL(columns)
	require.NoError(t, err)
	assert.Equal(t, "1 = 0", where)
}

func TestFilter_SQLRejectsUnknownField(t *testing.T) {
	f := All().And(Predicate{Field: "1=1; --", Op: OpEqual, Values: []any{"x"}})

	_, _, err := f.SQL(columns)

	assert.Error(t, err)
}

func TestFilter_SQLRejectsBadArity(t *testing.T) {
	f := All().And(Predicate{Field: FieldContent, Op: OpEqual})

	_, _, err := f.SQL(columns)

	assert.Error(t, err)
}

func TestFilter_AndDoesNotAlias(t *testing.T) {
	base := ContentNonEmpty()
	a := base.And(Predicate{Field: FieldNotePath, Op: OpEqual, Values: []any{"a"}})
	b := base.And(Predicate{Field: FieldNotePath, Op: OpEqual, Values: []any{"b"}})

	assert.Len(t, base.Predicates(), 1)
	assert.Equal(t, "content != '' AND notepath = 'a'", a.Expression())
	assert.Equal(t, "content != '' AND notepath = 'b'", b.Expression())
}

func TestFilter_BatchesSplitsLargeIn(t *testing.T) {
	keys := make([]string, 1203)
	for i := range keys {
		keys[i] = fmt.Sprintf("/n/%04d.md", i)
	}
	f := ContentNonEmpty().And(NotePathIn(keys...).Predicates()[0])

	batches := f.Batches(500)

	require.Len(t, batches, 3)
	var total int
	for _, b := range batches {
		preds := b.Predicates()
		require.Len(t, preds, 2)
		assert.Equal(t, OpNotEqual, preds[0].Op)
		assert.LessOrEqual(t, len(preds[1].Values), 500)
		total += len(preds[1].Values)
	}
	assert.Equal(t, len(keys), total)
	assert.Equal(t, "/n/1202.md", batches[2].Predicates()[1].Values[202])
}

func TestFilter_BatchesKeepsSmallFilter(t *testing.T) {
	f := NotePathIn("/n/a.md", "/n/b.md")

	assert.Equal(t, []Filter{f}, f.Batches(500))
	assert.Equal(t, []Filter{All()}, All().Batches(500))
}
