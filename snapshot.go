package main

import (
	"bytes"
	"image"
	"image/png"
	"os"

	"github.com/pkg/errors"
)

// SnapshotSink receives PNG-encoded snapshots of a window's bitmap.
type SnapshotSink interface {
	WriteSnapshot(png []byte) error
}

type fileSnapshotSink struct {
	path string
}

func (s fileSnapshotSink) WriteSnapshot(data []byte) error {
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return errors.Wrap(err, "write snapshot")
	}
	return nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, errors.Wrap(err, "encode snapshot")
	}
	return buf.Bytes(), nil
}
