package scanner

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"voicecorpus/internal/services"
)

// Recording is a candidate source file found under the input directory.
type Recording struct {
	Path    string
	RelPath string
	Name    string
	Ext     string
	Size    int64
	ModTime time.Time
}

// Options controls which files Scan returns.
type Options struct {
	Extensions []string
	Recursive  bool
}

// Scan lists recordings under dir whose extension matches opts, sorted by
// relative path. Hidden files and directories are skipped. An empty
// directory yields an empty slice.
func Scan(dir string, opts Options) ([]Recording, error) {
	dir = strings.TrimSpace(dir)
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, "scan", "stat input", dir, err)
		}
		return nil, services.Wrap(services.ErrValidation, "scan", "stat input", dir, err)
	}
	if !info.IsDir() {
		return nil, services.Wrap(services.ErrValidation, "scan", "stat input", dir+" is not a directory", nil)
	}

	allowed := extensionSet(opts.Extensions)
	recordings := []Recording{}
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == dir {
			return nil
		}
		if isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if !opts.Recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(d.Name()))
		if _, ok := allowed[ext]; !ok {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = d.Name()
		}
		recordings = append(recordings, Recording{
			Path:    path,
			RelPath: filepath.ToSlash(rel),
			Name:    strings.TrimSuffix(d.Name(), filepath.Ext(d.Name())),
			Ext:     ext,
			Size:    fi.Size(),
			ModTime: fi.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "scan", "walk input", dir, err)
	}

	sort.Slice(recordings, func(i, j int) bool {
		return recordings[i].RelPath < recordings[j].RelPath
	})
	return recordings, nil
}

// Digest fingerprints a scan result from relative paths, sizes, and
// modification times. Two runs over unchanged input share a digest.
func Digest(recordings []Recording) string {
	h := sha256.New()
	for _, rec := range recordings {
		_, _ = h.Write([]byte(rec.RelPath))
		_, _ = h.Write([]byte{0})
		_, _ = h.Write([]byte(strconv.FormatInt(rec.Size, 10)))
		_, _ = h.Write([]byte{0})
		_, _ = h.Write([]byte(strconv.FormatInt(rec.ModTime.UnixNano(), 10)))
		_, _ = h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// TotalSize sums recording sizes in bytes.
func TotalSize(recordings []Recording) int64 {
	var total int64
	for _, rec := range recordings {
		total += rec.Size
	}
	return total
}

func extensionSet(exts []string) map[string]struct{} {
	set := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set[ext] = struct{}{}
	}
	return set
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// String renders the recording for log lines.
func (r Recording) String() string {
	return fmt.Sprintf("%s (%d bytes)", r.RelPath, r.Size)
}
