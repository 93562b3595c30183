package registry

import (
	"fmt"
	"path/filepath"
	"strings"
)

// entryPath 把 CacheKey 映射为 StoragePath/<id>/<version>/<id>.<ext> 的绝对路径。
// 纯函数、无 I/O：相同键必得到相同路径，id/版本中的分隔符与穿越片段会被拒绝，
// 最终路径保证不逃出存储根目录。
func (r *Registry) entryPath(ontologyID, resolvedVersion string, fileType FileType) (string, error) {
	if err := validateSegment(ontologyID); err != nil {
		return "", fmt.Errorf("ontology id %q: %w", ontologyID, err)
	}
	if err := validateSegment(resolvedVersion); err != nil {
		return "", fmt.Errorf("version %q: %w", resolvedVersion, err)
	}
	if !fileType.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(fileType))
	}

	path := filepath.Join(r.root, ontologyID, resolvedVersion, ontologyID+fileType.Extension())
	if !strings.HasPrefix(path, r.root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: path escapes storage root", ErrInvalidIdentifier)
	}
	return path, nil
}

// validateSegment 拒绝空串、穿越片段以及任何形式的路径分隔符。
func validateSegment(segment string) error {
	if segment == "" {
		return fmt.Errorf("%w: empty segment", ErrInvalidIdentifier)
	}
	if segment == "." || segment == ".." {
		return fmt.Errorf("%w: traversal segment", ErrInvalidIdentifier)
	}
	if strings.ContainsAny(segment, `/\`) || strings.ContainsRune(segment, 0) {
		return fmt.Errorf("%w: separator in segment", ErrInvalidIdentifier)
	}
	return nil
}
