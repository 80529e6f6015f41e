package gamedata

import (
	"fmt"
	"io/fs"

	json "github.com/goccy/go-json"
)

// Load decodes one of the built-in data files.
func Load[T any](filename string) (T, error) {
	return LoadFrom[T](dataFS, filename)
}

// LoadFrom decodes filename from fsys, e.g. an os.DirFS of override data.
func LoadFrom[T any](fsys fs.FS, filename string) (T, error) {
	var result T
	content, err := fs.ReadFile(fsys, filename)
	if err != nil {
		return result, fmt.Errorf("reading %s: %w", filename, err)
	}
	if err := Decode(content, &result); err != nil {
		return result, fmt.Errorf("decoding %s: %w", filename, err)
	}
	return result, nil
}

// Decode unmarshals raw JSON game data.
func Decode(content []byte, v any) error {
	return json.Unmarshal(content, v)
}
