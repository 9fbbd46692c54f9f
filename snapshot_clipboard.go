//go:build !headless

package main

import (
	"sync"

	"github.com/pkg/errors"
	"golang.design/x/clipboard"
)

func init() {
	compiledFeatures = append(compiledFeatures, "snapshot:clipboard")
}

// clipboardSnapshotSink puts snapshots on the system clipboard as PNG.
type clipboardSnapshotSink struct {
	once sync.Once
	err  error
}

func (s *clipboardSnapshotSink) WriteSnapshot(data []byte) error {
	s.once.Do(func() {
		s.err = clipboard.Init()
	})
	if s.err != nil {
		return errors.Wrap(s.err, "clipboard unavailable")
	}
	clipboard.Write(clipboard.FmtImage, data)
	return nil
}
