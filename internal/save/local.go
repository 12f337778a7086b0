package save

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sorazip/sorazip/internal/utils"
)

// Local writes files into a directory. Data is staged in the directory's
// temp folder and renamed into place, so an interrupted save leaves only a
// .part file behind for `sorazip clean`.
type Local struct {
	Dir string
}

func NewLocal(dir string) *Local {
	if dir == "" {
		dir = "."
	}
	return &Local{Dir: dir}
}

func (l *Local) Save(ctx context.Context, name string, data []byte) (string, error) {
	path, _, err := l.SaveStream(ctx, name, bytes.NewReader(data))
	return path, err
}

// SaveStream copies r into Dir/name, picking "name-(N).ext" when the target
// already exists. It returns the final path and the number of bytes written.
func (l *Local) SaveStream(ctx context.Context, name string, r io.Reader) (string, int64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}
	tempDir := utils.TempDir(l.Dir)
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return "", 0, fmt.Errorf("error creating temp directory: %w", err)
	}
	tempPath := filepath.Join(tempDir, uuid.NewString()+filepath.Ext(name)+".part")
	written, err := writeTemp(tempPath, r)
	if err != nil {
		os.Remove(tempPath)
		removeIfEmpty(tempDir)
		return "", written, err
	}
	outputPath := filepath.Join(l.Dir, name)
	if _, err := os.Stat(outputPath); err == nil {
		outputPath = utils.RenewOutputPath(outputPath)
	}
	if err := os.Rename(tempPath, outputPath); err != nil {
		os.Remove(tempPath)
		removeIfEmpty(tempDir)
		return "", written, fmt.Errorf("error renaming (finalizing) output file: %w", err)
	}
	removeIfEmpty(tempDir)
	log.Info().Str("op", "save/local").Int64("bytes", written).Msgf("saved %s", outputPath)
	return outputPath, written, nil
}

// removeIfEmpty drops the temp dir unless other runs still have files in it.
func removeIfEmpty(tempDir string) {
	if remaining, err := os.ReadDir(tempDir); err == nil && len(remaining) == 0 {
		os.Remove(tempDir)
	}
}

func writeTemp(tempPath string, r io.Reader) (int64, error) {
	outFile, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return 0, fmt.Errorf("error creating output file: %w", err)
	}
	defer outFile.Close()
	buffer := make([]byte, utils.DefaultBufferSize)
	written, err := io.CopyBuffer(outFile, r, buffer)
	if err != nil {
		return written, fmt.Errorf("error writing output file: %w", err)
	}
	if err := outFile.Sync(); err != nil {
		return written, fmt.Errorf("error syncing output file: %w", err)
	}
	return written, nil
}
