package config

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// IsDesignFile reports whether path has a design document extension
func IsDesignFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// ResolveDesigns expands the design patterns relative to rootPath and
// returns the matching files, sorted, minus ignored ones
func (c *Config) ResolveDesigns(rootPath string) ([]string, error) {
	fileSet := make(map[string]bool)
	for _, pattern := range c.Designs {
		if !filepath.IsAbs(pattern) {
			pattern = filepath.Join(rootPath, pattern)
		}

		matches, err := expandGlob(pattern)
		if err != nil {
			// Invalid patterns match nothing
			continue
		}

		for _, match := range matches {
			if !IsDesignFile(match) || c.ShouldIgnoreFile(match) {
				continue
			}
			fileSet[match] = true
		}
	}

	result := make([]string, 0, len(fileSet))
	for f := range fileSet {
		result = append(result, f)
	}
	sort.Strings(result)
	return result, nil
}

// expandGlob expands a glob pattern, handling ** for recursive matching
func expandGlob(pattern string) ([]string, error) {
	if strings.Contains(pattern, "**") {
		return expandDoubleStarGlob(pattern)
	}
	return filepath.Glob(pattern)
}

// expandDoubleStarGlob handles ** patterns by walking the directory tree
func expandDoubleStarGlob(pattern string) ([]string, error) {
	parts := strings.SplitN(pattern, "**", 2)
	baseDir := filepath.Clean(parts[0])
	suffix := strings.TrimPrefix(parts[1], string(filepath.Separator))

	var results []string
	err := filepath.WalkDir(baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Skip unreadable entries, continue walking
		}
		if d.IsDir() {
			if path != baseDir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if suffix == "" {
			results = append(results, path)
			return nil
		}
		relPath, err := filepath.Rel(baseDir, path)
		if err != nil {
			return nil
		}
		if matchSuffix(relPath, suffix) {
			results = append(results, path)
		}
		return nil
	})

	return results, err
}

// matchSuffix checks if a relative path matches the pattern after **
func matchSuffix(path, pattern string) bool {
	// No directory component: match against the file name
	if !strings.Contains(pattern, string(filepath.Separator)) {
		matched, _ := filepath.Match(pattern, filepath.Base(path))
		return matched
	}

	if matched, _ := filepath.Match(pattern, path); matched {
		return true
	}

	// Try the trailing segments of path with the same depth as pattern
	depth := strings.Count(pattern, string(filepath.Separator))
	segs := strings.Split(path, string(filepath.Separator))
	if len(segs) <= depth {
		return false
	}
	tail := filepath.Join(segs[len(segs)-depth-1:]...)
	matched, _ := filepath.Match(pattern, tail)
	return matched
}
