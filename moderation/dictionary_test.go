package moderation

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func TestLoadEmbeddedDictionaries(t *testing.T) {
	req := require.New(t)

	dict, err := LoadEmbeddedDictionaries()
	req.NoError(err)
	req.NotEmpty(dict.Words)
	req.Contains(dict.Languages, "en")
	req.Contains(dict.Languages, "fr")

	// The merged list feeds the filter directly.
	filter, err := NewFilter(dict.Words, maskChar)
	req.NoError(err)
	req.NotEqual("what an idiot", filter.Apply("what an idiot"))
}

func TestLoadDictionaries(t *testing.T) {
	t.Run("should merge files, dedupe and skip comments", func(t *testing.T) {
		req := require.New(t)
		fsys := fstest.MapFS{
			"words/en.txt": {Data: []byte("# header\nBadger\n\nsnake\r\n")},
			"words/fr.txt": {Data: []byte("badger\nserpent\n")},
			"words/notes":  {Data: []byte("ignored, not a .txt")},
		}

		dict, err := loadDictionaries(fsys, "words")
		req.NoError(err)
		req.ElementsMatch([]string{"badger", "snake", "serpent"}, dict.Words)
		req.ElementsMatch([]string{"en", "fr"}, dict.Languages)
	})

	t.Run("should fail on an empty directory", func(t *testing.T) {
		fsys := fstest.MapFS{"words/en.txt": {Data: []byte("# only a comment\n")}}
		_, err := loadDictionaries(fsys, "words")
		require.Error(t, err)
	})
}
