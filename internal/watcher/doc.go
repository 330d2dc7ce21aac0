// Package watcher reports changes to note files under a directory.
//
// Events come from fsnotify and are debounced so that the bursts editors
// produce on save collapse into one event per path. A rename is reported
// as a delete of the old path; the new path arrives as a create.
//
// Usage:
//
//	w, err := watcher.New(watcher.Options{Accept: sc.Accepts, SkipDir: sc.SkipsDir})
//	if err != nil {
//	    return err
//	}
//	defer w.Stop()
//	go w.Start(ctx, root)
//	for batch := range w.Events() {
//	    // handle []watcher.FileEvent
//	}
package watcher
