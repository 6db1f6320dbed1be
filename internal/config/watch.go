/*
MIT License

Copyright (c) 2024 Nicolas JUHEL

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

package config

import (
	"context"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/blackfennetworks/honeytrap/internal/hplog"
)

// ReloadGate reports whether a config reload may be applied right now.
// The reactor only accepts new listen ports/timeouts between a Stop and
// the next Start, so callers pass something like reactor.IsRunning negated.
type ReloadGate func() bool

// Watch starts an fsnotify watch on path and invokes onReload with the
// freshly parsed Config whenever the file changes and gate() allows it.
// Reloads observed while gate() returns false are logged and dropped -
// applying a new port set to a running reactor would require tearing down
// listeners out from under live sessions.
func Watch(ctx context.Context, path string, v *viper.Viper, gate ReloadGate, log hplog.Logger, onReload func(Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(path); err != nil {
		_ = watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if !gate() {
					log.Warning("config changed while reactor is running, reload skipped", hplog.Fields{"path": path})
					continue
				}
				cfg, err := Load(path, v)
				if err != nil {
					log.Error("config reload failed", hplog.Fields{"path": path, "error": err.Error()})
					continue
				}
				onReload(cfg)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Error("config watcher error", hplog.Fields{"error": err.Error()})
			}
		}
	}()

	return nil
}
