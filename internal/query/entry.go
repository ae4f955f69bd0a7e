package query

import (
	"io/fs"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charlievieth/fastwalk"
	"go.uber.org/zap"
)

// Entry is one file in a resolved list. Identity is the absolute Path. Tags
// start empty and are replaced wholesale after a successful fetch or
// mutation; everything else is immutable once constructed.
type Entry struct {
	Name    string
	Path    string
	IsDir   bool
	Size    int64
	ModTime time.Time
	Tags    []string
}

// ListDir returns the immediate children of dir, hidden entries excluded.
// Stat information is read at call time; entries whose stat fails are kept
// with zero size and time rather than dropped.
func ListDir(dir string) ([]Entry, error) {
	var result []Entry
	var mu sync.Mutex

	conf := &fastwalk.Config{Follow: true}
	dirLen := len(dir)

	err := fastwalk.Walk(conf, dir, func(fullPath string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries, keep walking
		}
		if fullPath == dir {
			return nil
		}

		// Direct children only.
		relStart := dirLen
		if relStart < len(fullPath) && (fullPath[relStart] == '/' || fullPath[relStart] == '\\') {
			relStart++
		}
		if strings.ContainsAny(fullPath[relStart:], "/\\") {
			if d.IsDir() {
				return fastwalk.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return fastwalk.SkipDir
			}
			return nil
		}

		info, statErr := fastwalk.StatDirEntry(fullPath, d)
		if statErr != nil {
			// Broken symlink or inaccessible target.
			info, statErr = os.Lstat(fullPath)
		}

		e := Entry{Name: d.Name(), Path: fullPath, IsDir: d.IsDir()}
		if statErr == nil {
			e.IsDir = info.IsDir()
			e.Size = info.Size()
			e.ModTime = info.ModTime()
		}

		mu.Lock()
		result = append(result, e)
		mu.Unlock()

		if d.IsDir() {
			return fastwalk.SkipDir
		}
		return nil
	})
	if err != nil {
		zap.S().Warnw("directory listing failed", "dir", dir, "err", err)
		return nil, err
	}
	return result, nil
}

// entryFromPath builds an Entry for a store-reported path. The second return
// is false when the path no longer exists on disk; store and file system
// drift independently, so missing paths are dropped silently by callers.
// Stat failures other than nonexistence keep the entry with zero values.
func entryFromPath(path string) (Entry, bool) {
	e := Entry{Name: baseName(path), Path: path}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Entry{}, false
		}
		zap.S().Debugw("stat failed", "path", path, "err", err)
		return e, true
	}
	e.IsDir = info.IsDir()
	e.Size = info.Size()
	e.ModTime = info.ModTime()
	return e, true
}

func baseName(path string) string {
	if i := strings.LastIndexAny(path, "/\\"); i >= 0 {
		return path[i+1:]
	}
	return path
}
