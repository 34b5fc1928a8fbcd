package fetch

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// DumpDir mirrors every fetched body into a directory, one file per
// URL. Useful when a site changes its markup and the selectors need to
// be reworked against the pages that actually came back.
type DumpDir struct {
	directory string
}

func NewDumpDir(dir string) (*DumpDir, error) {
	err := os.RemoveAll(dir)
	if err != nil {
		return nil, err
	}
	err = os.MkdirAll(dir, 0777)
	if err != nil {
		return nil, err
	}
	return &DumpDir{directory: dir}, nil
}

func (d *DumpDir) Write(url string, contents []byte) {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '-':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		}
		return '_'
	}, url)
	if name == "" {
		name = "index"
	}
	err := os.WriteFile(filepath.Join(d.directory, name), contents, 0600)
	if err != nil {
		slog.Warn("failed to write dump file", "url", url, "err", err)
	}
}
