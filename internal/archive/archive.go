// Package archive bundles fetched videos into a single in-memory ZIP.
package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/klauspost/compress/flate"
)

// CompressionLevel is the fixed deflate level used for every entry.
const CompressionLevel = 6

type entry struct {
	name string
	data []byte
}

// Archive accumulates named payloads. Names are unique; adding a name that
// is already taken stores the payload as "name-(N).ext" instead of
// replacing the earlier entry.
type Archive struct {
	entries  []entry
	names    map[string]struct{}
	modified time.Time
}

func New(modified time.Time) *Archive {
	return &Archive{
		names:    make(map[string]struct{}),
		modified: modified,
	}
}

// Add stores data under name, or under a disambiguated variant of it, and
// returns the name actually used.
func (a *Archive) Add(name string, data []byte) string {
	name = a.uniqueName(name)
	a.names[name] = struct{}{}
	a.entries = append(a.entries, entry{name: name, data: data})
	return name
}

func (a *Archive) uniqueName(name string) string {
	if _, taken := a.names[name]; !taken {
		return name
	}
	ext := path.Ext(name)
	stem := name[:len(name)-len(ext)]
	for index := 1; ; index++ {
		candidate := fmt.Sprintf("%s-(%d)%s", stem, index, ext)
		if _, taken := a.names[candidate]; !taken {
			return candidate
		}
	}
}

func (a *Archive) Len() int {
	return len(a.entries)
}

// Names returns entry names in insertion order.
func (a *Archive) Names() []string {
	names := make([]string, len(a.entries))
	for i, e := range a.entries {
		names[i] = e.name
	}
	return names
}

// WriteTo serializes the archive as a deflate-compressed ZIP.
func (a *Archive) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	zw := zip.NewWriter(cw)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, CompressionLevel)
	})
	for _, e := range a.entries {
		header := &zip.FileHeader{
			Name:     e.name,
			Method:   zip.Deflate,
			Modified: a.modified,
		}
		fw, err := zw.CreateHeader(header)
		if err != nil {
			return cw.n, fmt.Errorf("creating entry %s: %w", e.name, err)
		}
		if _, err := fw.Write(e.data); err != nil {
			return cw.n, fmt.Errorf("writing entry %s: %w", e.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return cw.n, fmt.Errorf("finalizing archive: %w", err)
	}
	return cw.n, nil
}

// Bytes serializes the archive into memory.
func (a *Archive) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := a.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
