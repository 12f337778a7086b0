// Package save stores finished archives.
package save

import (
	"context"
	"fmt"
	"time"
)

type Saver interface {
	// Save stores data under name and returns where it ended up.
	Save(ctx context.Context, name string, data []byte) (string, error)
}

// ArchiveName returns "<prefix>_<count>_Videos_<YYYY-MM-DD>.zip" using the
// UTC date of now.
func ArchiveName(prefix string, count int, now time.Time) string {
	return fmt.Sprintf("%s_%d_Videos_%s.zip", prefix, count, now.UTC().Format(time.DateOnly))
}
