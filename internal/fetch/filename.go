package fetch

import (
	"mime"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/sorazip/sorazip/internal/refs"
	"github.com/sorazip/sorazip/internal/utils"
)

var (
	looseFilenameRegex = regexp.MustCompile(`filename="?(.+?)("?);?$`)
	unsafeNameRegex    = regexp.MustCompile(`[\x00-\x1f/\\:*?"<>|]+`)
)

// ResolveFilename names the payload fetched for ref. A filename carried by
// the Content-Disposition header wins; otherwise "<ref>.mp4" is used. The
// result depends only on its arguments.
func ResolveFilename(contentDisposition string, ref refs.Reference) string {
	if name := filenameFromDisposition(contentDisposition); name != "" {
		return name
	}
	return ref.String() + utils.VideoExtension
}

func filenameFromDisposition(contentDisposition string) string {
	if contentDisposition == "" {
		return ""
	}
	var raw string
	// mime decodes filename*=UTF-8''... into params["filename"]
	if _, params, err := mime.ParseMediaType(contentDisposition); err == nil {
		raw = params["filename"]
	}
	if raw == "" {
		if match := looseFilenameRegex.FindStringSubmatch(contentDisposition); match != nil {
			raw = match[1]
			if unescaped, err := url.PathUnescape(strings.TrimPrefix(raw, "UTF-8''")); err == nil {
				raw = unescaped
			}
		}
	}
	return sanitizeFilename(raw)
}

// sanitizeFilename reduces name to a single safe path element so archive
// entries cannot escape the extraction directory.
func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(strings.TrimSpace(name))
	name = unsafeNameRegex.ReplaceAllString(name, "_")
	name = strings.Trim(name, " .")
	if name == "" || name == "_" {
		return ""
	}
	return name
}
