package store

import (
	"fmt"
	"math"
	"time"

	nserrors "github.com/Aman-CERP/notesync/internal/errors"
)

// ErrMalformedRecord matches, via errors.Is, every error returned by
// ParseRecord and ParseQueryResult.
var ErrMalformedRecord = nserrors.New(nserrors.ErrCodeRecordMalformed, "malformed record", nil)

// MalformedRecordError reports why a row is not a valid chunk record.
type MalformedRecordError struct {
	Field  string
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record: %s %s", e.Field, e.Reason)
}

// Unwrap ties the error to ErrMalformedRecord.
func (e *MalformedRecordError) Unwrap() error {
	return ErrMalformedRecord
}

func missing(field string) error {
	return &MalformedRecordError{Field: field, Reason: "is missing"}
}

func mistyped(field string, v any) error {
	return &MalformedRecordError{Field: field, Reason: fmt.Sprintf("has unexpected type %T", v)}
}

// ParseRecord validates a row read from a Backend and converts it to a
// ChunkRecord, decoding the note path. notepath, content, subnoteindex,
// timeadded and vector are required; filemodified is optional.
func ParseRecord(row Row) (ChunkRecord, error) {
	var rec ChunkRecord

	key, err := stringField(row, FieldNotePath)
	if err != nil {
		return rec, err
	}
	content, err := stringField(row, FieldContent)
	if err != nil {
		return rec, err
	}
	index, err := intField(row, FieldSubNoteIndex)
	if err != nil {
		return rec, err
	}
	added, err := timeField(row, FieldTimeAdded)
	if err != nil {
		return rec, err
	}
	vector, err := vectorField(row, FieldVector)
	if err != nil {
		return rec, err
	}

	rec = ChunkRecord{
		NotePath:     DecodePath(key),
		Content:      content,
		SubNoteIndex: index,
		TimeAdded:    added,
		Vector:       vector,
	}

	if _, ok := row[FieldFileModified]; ok {
		modified, err := timeField(row, FieldFileModified)
		if err != nil {
			return ChunkRecord{}, err
		}
		rec.FileModified = modified
	}
	return rec, nil
}

// ParseQueryResult is ParseRecord for search rows, which must also carry
// a distance.
func ParseQueryResult(row Row) (QueryResult, error) {
	rec, err := ParseRecord(row)
	if err != nil {
		return QueryResult{}, err
	}
	v, ok := row[FieldDistance]
	if !ok || v == nil {
		return QueryResult{}, missing(FieldDistance)
	}

	var dist float32
	switch d := v.(type) {
	case float32:
		dist = d
	case float64:
		dist = float32(d)
	default:
		return QueryResult{}, mistyped(FieldDistance, v)
	}
	return QueryResult{ChunkRecord: rec, Distance: dist}, nil
}

// toRow converts a record whose NotePath is already a store key.
func (r ChunkRecord) toRow() Row {
	return Row{
		FieldNotePath:     r.NotePath,
		FieldContent:      r.Content,
		FieldSubNoteIndex: r.SubNoteIndex,
		FieldTimeAdded:    r.TimeAdded,
		FieldFileModified: r.FileModified,
		FieldVector:       r.Vector,
	}
}

func stringField(row Row, field string) (string, error) {
	v, ok := row[field]
	if !ok || v == nil {
		return "", missing(field)
	}
	switch s := v.(type) {
	case string:
		return s, nil
	case []byte:
		return string(s), nil
	default:
		return "", mistyped(field, v)
	}
}

func intField(row Row, field string) (int, error) {
	v, ok := row[field]
	if !ok || v == nil {
		return 0, missing(field)
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, &MalformedRecordError{Field: field, Reason: "is not a whole number"}
		}
		return int(n), nil
	default:
		return 0, mistyped(field, v)
	}
}

// timeField accepts time.Time, Unix milliseconds or an RFC 3339 string.
func timeField(row Row, field string) (time.Time, error) {
	v, ok := row[field]
	if !ok || v == nil {
		return time.Time{}, missing(field)
	}
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case int64:
		return time.UnixMilli(t), nil
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}, &MalformedRecordError{Field: field, Reason: "is not an RFC 3339 time"}
		}
		return parsed, nil
	default:
		return time.Time{}, mistyped(field, v)
	}
}

func vectorField(row Row, field string) ([]float32, error) {
	v, ok := row[field]
	if !ok || v == nil {
		return nil, missing(field)
	}
	switch vec := v.(type) {
	case []float32:
		return vec, nil
	case []byte:
		decoded, err := decodeVector(vec)
		if err != nil {
			return nil, &MalformedRecordError{Field: field, Reason: err.Error()}
		}
		return decoded, nil
	default:
		return nil, mistyped(field, v)
	}
}
