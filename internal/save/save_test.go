package save

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sorazip/sorazip/internal/utils"
)

func TestArchiveName(t *testing.T) {
	now := time.Date(2025, 11, 3, 23, 30, 0, 0, time.FixedZone("PKT", 5*3600))
	got := ArchiveName("Sora_Pakistan", 4, now)
	want := "Sora_Pakistan_4_Videos_2025-11-03.zip"
	if got != want {
		t.Errorf("ArchiveName() = %q, want %q", got, want)
	}
	// 01:00 in UTC+5 is still the previous day in UTC
	early := time.Date(2025, 11, 4, 1, 0, 0, 0, time.FixedZone("PKT", 5*3600))
	if got := ArchiveName("p", 1, early); got != "p_1_Videos_2025-11-03.zip" {
		t.Errorf("ArchiveName() = %q, want UTC date", got)
	}
}

func TestLocalSave(t *testing.T) {
	dir := t.TempDir()
	saver := NewLocal(dir)

	path, err := saver.Save(context.Background(), "a.zip", []byte("one"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if path != filepath.Join(dir, "a.zip") {
		t.Errorf("path = %q", path)
	}
	second, err := saver.Save(context.Background(), "a.zip", []byte("two"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if second != filepath.Join(dir, "a-(1).zip") {
		t.Errorf("second path = %q, want renamed", second)
	}
	content, _ := os.ReadFile(second)
	if string(content) != "two" {
		t.Errorf("content = %q", content)
	}
	if _, err := os.Stat(utils.TempDir(dir)); !os.IsNotExist(err) {
		t.Errorf("temp dir should be removed after save, stat err = %v", err)
	}
}

func TestLocalSaveCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewLocal(t.TempDir()).Save(ctx, "a.zip", nil); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestParseS3Destination(t *testing.T) {
	tests := []struct {
		dest       string
		bucket     string
		prefix     string
		shouldFail bool
	}{
		{"s3://bucket/videos/", "bucket", "videos", false},
		{"bucket", "bucket", "", false},
		{"bucket/a/b", "bucket", "a/b", false},
		{"s3://", "", "", true},
		{"/prefix", "", "", true},
	}
	for _, tt := range tests {
		bucket, prefix, err := ParseS3Destination(tt.dest)
		if tt.shouldFail {
			if !errors.Is(err, ErrInvalidS3Destination) {
				t.Errorf("ParseS3Destination(%q) expected ErrInvalidS3Destination, got %v", tt.dest, err)
			}
			continue
		}
		if err != nil || bucket != tt.bucket || prefix != tt.prefix {
			t.Errorf("ParseS3Destination(%q) = (%q, %q, %v), want (%q, %q)", tt.dest, bucket, prefix, err, tt.bucket, tt.prefix)
		}
	}
}

type fakeUploader struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeUploader) Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	f.input = input
	f.body, _ = io.ReadAll(input.Body)
	return &manager.UploadOutput{}, f.err
}

func TestS3Save(t *testing.T) {
	uploader := &fakeUploader{}
	saver := NewS3WithUploader("bucket", "videos", uploader)
	location, err := saver.Save(context.Background(), "a.zip", []byte("zip"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if location != "s3://bucket/videos/a.zip" {
		t.Errorf("location = %q", location)
	}
	if *uploader.input.Bucket != "bucket" || *uploader.input.Key != "videos/a.zip" {
		t.Errorf("unexpected input bucket=%q key=%q", *uploader.input.Bucket, *uploader.input.Key)
	}
	if string(uploader.body) != "zip" {
		t.Errorf("body = %q", uploader.body)
	}
}

func TestS3SaveError(t *testing.T) {
	saver := NewS3WithUploader("bucket", "", &fakeUploader{err: errors.New("denied")})
	if _, err := saver.Save(context.Background(), "a.zip", nil); err == nil {
		t.Fatal("expected upload error")
	}
}

func TestLocalSaveStreamCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	path, written, err := NewLocal(dir).SaveStream(context.Background(), "clip.mp4", strings.NewReader("video"))
	if err != nil {
		t.Fatalf("SaveStream() error = %v", err)
	}
	if written != 5 || path != filepath.Join(dir, "clip.mp4") {
		t.Errorf("SaveStream() = (%q, %d)", path, written)
	}
}

type brokenReader struct{}

func (brokenReader) Read(p []byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestLocalSaveStreamLeavesNoPartialFile(t *testing.T) {
	dir := t.TempDir()
	if _, _, err := NewLocal(dir).SaveStream(context.Background(), "clip.mp4", brokenReader{}); err == nil {
		t.Fatal("expected read error")
	}
	if _, err := os.Stat(utils.TempDir(dir)); !os.IsNotExist(err) {
		t.Errorf("temp dir should be removed after a failed save, stat err = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "clip.mp4")); !os.IsNotExist(err) {
		t.Errorf("partial output should not exist, stat err = %v", err)
	}
}

func TestLocalSaveStreamKeepsSharedTempDir(t *testing.T) {
	dir := t.TempDir()
	tempDir := utils.TempDir(dir)
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		t.Fatal(err)
	}
	other := filepath.Join(tempDir, "other-run.mp4.part")
	if err := os.WriteFile(other, []byte("partial"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := NewLocal(dir).SaveStream(context.Background(), "clip.mp4", brokenReader{}); err == nil {
		t.Fatal("expected read error")
	}
	if _, err := os.Stat(other); err != nil {
		t.Errorf("another run's partial file should survive, stat err = %v", err)
	}
}
