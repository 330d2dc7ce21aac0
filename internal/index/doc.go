// Package index keeps a chunk store in step with a directory of notes.
//
// A Reconciler compares the files a Corpus lists against a snapshot of the
// Store and refreshes every file whose chunk count changed: all records of
// those files are deleted in one call, then their fresh chunks are inserted
// in one call. Files that produce no chunks are left untouched.
//
// The comparison is by count only. Editing a note so that it yields the
// same number of chunks as before is not detected by Resync; UpdateFile
// (or the watcher, which calls it) is the path that picks up such edits.
//
// Each stored record carries its note path, its position within the note
// (SubNoteIndex, 0-based and contiguous), the time it was added and the
// note's modification time. Paths are passed to the Store unencoded; the
// store package owns key encoding.
package index
