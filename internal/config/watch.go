package config

import (
	"github.com/fsnotify/fsnotify"

	"github.com/alexsharp-ai/bytebot/internal/logging"
)

// ReloadFunc is called with a freshly loaded Config whenever the watched
// file changes on disk.
type ReloadFunc func(Config)

// Watcher reloads a config file when it is written or created and passes the
// new Config to a callback. cmd/agentd does not start a Watcher, so the
// running processor's providers are the ones registered at startup.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	onLoad  ReloadFunc
	done    chan struct{}
}

// WatchFile starts watching path for writes, calling onLoad with each
// successfully reloaded Config. The returned Watcher must be closed by the
// caller when done.
func WatchFile(path string, onLoad ReloadFunc) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(path); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{path: path, watcher: fw, onLoad: onLoad, done: make(chan struct{})}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := Load(w.path)
			if err != nil {
				logging.Warnf("[config] reload of %s failed: %v", w.path, err)
				continue
			}
			logging.Infof("[config] reloaded %s", w.path)
			w.onLoad(cfg)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Warnf("[config] watch error: %v", err)
		case <-w.done:
			return
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
