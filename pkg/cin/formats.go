package cin

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
)

// TableExt is the file extension of code tables.
const TableExt = ".cin"

// minTableSize is one code, one separator and one value byte.
const minTableSize = 3

// TableInfo describes a table file found on disk.
type TableInfo struct {
	Name string
	Path string
	Size int64
}

// ValidateTableFile checks that path looks like a readable code table.
// It does not parse the table.
func ValidateTableFile(path string) error {
	fileInfo, err := os.Stat(path)
	if err != nil {
		return errors.Wrapf(err, "failed to stat table %s", path)
	}
	if fileInfo.IsDir() {
		return errors.Newf("table %s is a directory", path)
	}
	if fileInfo.Size() < minTableSize {
		return errors.Newf("table %s is too small (%d bytes, minimum: %d bytes)",
			path, fileInfo.Size(), minTableSize)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != TableExt {
		return errors.Newf("table %s has invalid extension %s (expected: %s)", path, ext, TableExt)
	}

	file, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "failed to open table %s", path)
	}
	defer file.Close()

	buffer := make([]byte, 1024)
	if _, err := file.Read(buffer); err != nil && err != io.EOF {
		return errors.Wrapf(err, "failed to read from table %s", path)
	}

	log.Debugf("Table file %s validated", path)
	return nil
}

// ListTables returns the valid tables in dir, sorted by name.
func ListTables(dir string) ([]TableInfo, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*"+TableExt))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to scan for tables in %s", dir)
	}

	var tables []TableInfo
	for _, path := range matches {
		if err := ValidateTableFile(path); err != nil {
			log.Warnf("Skipping table %s: %v", path, err)
			continue
		}
		fileInfo, err := os.Stat(path)
		if err != nil {
			continue
		}
		tables = append(tables, TableInfo{
			Name: filepath.Base(path),
			Path: path,
			Size: fileInfo.Size(),
		})
	}

	sort.Slice(tables, func(i, j int) bool {
		return tables[i].Name < tables[j].Name
	})
	return tables, nil
}
