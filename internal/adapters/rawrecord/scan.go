// Package rawrecord discovers scraped competition files and decodes every
// known variant into the canonical model.
package rawrecord

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/matteohorvath/ksis/internal/domain/model"
)

var idPattern = regexp.MustCompile(`_(\d+)\.(json|html?)$`)

// File is one raw file addressed by competition id.
type File struct {
	Path string
	ID   model.CompetitionID
}

// Corpus lists the files of one run. Results are ingested before Marks.
type Corpus struct {
	Results []File
	Marks   []File
	// Unmatched are files whose name carries no competition id.
	Unmatched []string
}

// Len is the number of ingestible files.
func (c Corpus) Len() int { return len(c.Results) + len(c.Marks) }

// Scan lists resultsDir and dataDir, non-recursively. A missing directory
// is treated as empty.
func Scan(resultsDir, dataDir string) (Corpus, error) {
	var c Corpus
	var err error
	if c.Results, c.Unmatched, err = list(resultsDir, c.Unmatched); err != nil {
		return Corpus{}, err
	}
	if c.Marks, c.Unmatched, err = list(dataDir, c.Unmatched); err != nil {
		return Corpus{}, err
	}
	return c, nil
}

func list(dir string, unmatched []string) ([]File, []string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, unmatched, nil
	}
	if err != nil {
		return nil, unmatched, fmt.Errorf("read dir %s: %w", dir, err)
	}
	var files []File
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		id, err := FileID(path)
		if err != nil {
			unmatched = append(unmatched, path)
			continue
		}
		files = append(files, File{Path: path, ID: id})
	}
	return files, unmatched, nil
}

// FileID extracts the competition id from names like competition_marks_123.json.
func FileID(path string) (model.CompetitionID, error) {
	m := idPattern.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return 0, fmt.Errorf("%w: %s", ErrNoCompetitionID, path)
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrNoCompetitionID, path, err)
	}
	return model.CompetitionID(id), nil
}
