package moderation

import (
	"bufio"
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"strings"
)

//go:embed dictionaries/*.txt
var dictionariesFS embed.FS

// Dictionary carries the loaded word list plus metadata for logging.
type Dictionary struct {
	Words     []string
	Languages []string
}

// LoadEmbeddedDictionaries reads the word lists shipped with the binary.
// Used when no explicit list is configured.
func LoadEmbeddedDictionaries() (*Dictionary, error) {
	return loadDictionaries(dictionariesFS, "dictionaries")
}

// loadDictionaries scans the directory for .txt files, one per language
// (e.g. "fr.txt" -> "fr"), and merges their lines into a unique word list.
func loadDictionaries(fsys fs.FS, path string) (*Dictionary, error) {
	entries, err := fs.ReadDir(fsys, path)
	if err != nil {
		return nil, err
	}

	var languages []string
	unique := make(map[string]struct{})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		languages = append(languages, strings.TrimSuffix(entry.Name(), ".txt"))

		data, err := fs.ReadFile(fsys, path+"/"+entry.Name())
		if err != nil {
			return nil, err
		}

		// A scanner handles both \n and \r\n line endings.
		scanner := bufio.NewScanner(bytes.NewReader(data))
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			unique[strings.ToLower(line)] = struct{}{}
		}
		if err := scanner.Err(); err != nil {
			return nil, err
		}
	}

	if len(unique) == 0 {
		return nil, fmt.Errorf("no censored words found under %s", path)
	}

	words := make([]string, 0, len(unique))
	for w := range unique {
		words = append(words, w)
	}
	return &Dictionary{Words: words, Languages: languages}, nil
}
