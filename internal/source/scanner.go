package source

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// knownDataFiles are the names the original case-study exports ship with,
// checked before falling back to any lone CSV in the directory.
var knownDataFiles = []string{
	"Case Study Data.csv",
	"clean_case_study_data.csv",
	"sales.csv",
}

// Stat returns the change fingerprint for a single file.
func Stat(path string) (DiscoveredFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return DiscoveredFile{}, err
	}
	if info.IsDir() {
		return DiscoveredFile{}, fmt.Errorf("%s is a directory", path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return DiscoveredFile{
		Path:      abs,
		Name:      info.Name(),
		MtimeNs:   info.ModTime().UnixNano(),
		SizeBytes: info.Size(),
	}, nil
}

// ScanDir lists the CSV files directly inside dir, sorted by name.
// A missing directory yields no files and no error.
func ScanDir(dir string) ([]DiscoveredFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var files []DiscoveredFile
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		df, err := Stat(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		files = append(files, df)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})
	return files, nil
}

// DetectDataFile picks the sales file to load when none was given: one of the
// known export names, or the only CSV in dir. It returns "" when the choice
// is ambiguous or nothing is found.
func DetectDataFile(dir string) string {
	files, err := ScanDir(dir)
	if err != nil || len(files) == 0 {
		return ""
	}

	for _, name := range knownDataFiles {
		for _, f := range files {
			if f.Name == name {
				return f.Path
			}
		}
	}

	if len(files) == 1 {
		return files[0].Path
	}
	return ""
}
