package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"
	"time"
)

func readZip(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("zip.NewReader() error = %v", err)
	}
	files := make(map[string]string)
	for _, f := range zr.File {
		if f.Method != zip.Deflate {
			t.Errorf("%s: method = %d, want deflate", f.Name, f.Method)
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read %s: %v", f.Name, err)
		}
		files[f.Name] = string(content)
	}
	return files
}

func TestArchiveRoundTrip(t *testing.T) {
	a := New(time.Date(2025, 11, 3, 12, 0, 0, 0, time.UTC))
	a.Add("one.mp4", []byte(strings.Repeat("a", 4096)))
	a.Add("two.mp4", []byte("second"))

	data, err := a.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}
	files := readZip(t, data)
	if len(files) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(files))
	}
	if files["two.mp4"] != "second" {
		t.Errorf("two.mp4 = %q", files["two.mp4"])
	}
	if len(data) >= 4096 {
		t.Errorf("expected compressed output smaller than input, got %d bytes", len(data))
	}
}

func TestArchiveDuplicateNames(t *testing.T) {
	a := New(time.Now())
	names := []string{
		a.Add("clip.mp4", []byte("1")),
		a.Add("clip.mp4", []byte("2")),
		a.Add("clip.mp4", []byte("3")),
		a.Add("clip-(1).mp4", []byte("4")),
		a.Add("noext", []byte("5")),
		a.Add("noext", []byte("6")),
	}
	want := []string{"clip.mp4", "clip-(1).mp4", "clip-(2).mp4", "clip-(1)-(1).mp4", "noext", "noext-(1)"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("names = %v, want %v", names, want)
	}
	if !reflect.DeepEqual(a.Names(), want) {
		t.Errorf("Names() = %v, want %v", a.Names(), want)
	}
	if a.Len() != len(want) {
		t.Errorf("Len() = %d, want %d", a.Len(), len(want))
	}
	data, err := a.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	files := readZip(t, data)
	if files["clip-(2).mp4"] != "3" {
		t.Errorf("clip-(2).mp4 = %q, want 3", files["clip-(2).mp4"])
	}
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestArchiveWriteError(t *testing.T) {
	a := New(time.Now())
	a.Add("clip.mp4", []byte("data"))
	if _, err := a.WriteTo(failingWriter{}); err == nil {
		t.Fatal("expected error from failing writer")
	}
}
