package files

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// stampPattern matches the <YYYYmmdd_HHMMSS>_<run id> suffix every run file carries
const stampPattern = `_\d{8}_\d{6}_[0-9A-Za-z-]{1,8}`

// outputExtensions are the data file formats a run can produce
var outputExtensions = []string{".csv", ".xlsx", ".sqlite"}

// Artifacts names the files one run leaves in the output directory
type Artifacts struct {
	// DataPrefix names <prefix>_<stamp>.csv|.xlsx|.sqlite
	DataPrefix string
	// ReportPrefix names <prefix>_<stamp>.txt
	ReportPrefix string
	// ChartPrefix names <prefix>_<stamp>.png
	ChartPrefix string
}

func (a Artifacts) pattern() *regexp.Regexp {
	var alts []string
	add := func(prefix string, exts ...string) {
		if prefix == "" {
			return
		}
		quoted := make([]string, len(exts))
		for i, e := range exts {
			quoted[i] = regexp.QuoteMeta(e)
		}
		alts = append(alts, regexp.QuoteMeta(prefix)+stampPattern+"("+strings.Join(quoted, "|")+")")
	}
	add(a.DataPrefix, outputExtensions...)
	add(a.ReportPrefix, ".txt")
	add(a.ChartPrefix, ".png")
	if len(alts) == 0 {
		return nil
	}
	return regexp.MustCompile(`(?i)^(` + strings.Join(alts, "|") + `)$`)
}

// FindArtifacts lists the regular files in dir written by earlier runs,
// sorted by name. Files that merely share a prefix are not included.
func FindArtifacts(dir string, a Artifacts) ([]FileInfo, error) {
	re := a.pattern()
	if re == nil {
		return nil, fmt.Errorf("no artifact prefixes given")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !re.MatchString(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(dir, entry.Name()),
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	// Stamps sort lexically in time order
	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})
	return files, nil
}

// FindOutputs lists the data files of earlier runs in dir whose names start
// with prefix, oldest first. Reports and charts are not included.
func FindOutputs(dir, prefix string) ([]FileInfo, error) {
	return FindArtifacts(dir, Artifacts{DataPrefix: prefix})
}

// GetLatestFile returns the last file of a list sorted by FindOutputs
func GetLatestFile(files []FileInfo) (FileInfo, bool) {
	if len(files) == 0 {
		return FileInfo{}, false
	}
	return files[len(files)-1], true
}

// Within reports whether path lies inside dir once both are made absolute.
func Within(dir, path string) bool {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absDir, absPath)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
