package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

func defaultDataDir() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "intervue-data"
		}
		dir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dir, "intervue")
}

func configFilePath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".", "intervue", "config.json")
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "intervue", "config.json")
}

// fileStore is the config file: a flat JSON object keyed by dotted key
// names. Values stay raw until a keySpec decodes them.
type fileStore struct {
	path   string
	values map[string]json.RawMessage
}

// openFileStore reads path. A missing file is an empty store.
func openFileStore(path string) (*fileStore, error) {
	f := &fileStore{path: path, values: map[string]json.RawMessage{}}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return f, nil
	}
	if err != nil {
		return f, fmt.Errorf("reading config file %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return f, nil
	}
	if err := json.Unmarshal(data, &f.values); err != nil {
		return f, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if f.values == nil {
		f.values = map[string]json.RawMessage{}
	}
	return f, nil
}

// lookup returns the raw value stored for key. JSON null and the empty
// string on a non-string key count as unset.
func (f *fileStore) lookup(s keySpec) (json.RawMessage, bool) {
	raw, ok := f.values[s.key]
	if !ok {
		return nil, false
	}
	switch v := string(bytes.TrimSpace(raw)); {
	case v == "null":
		return nil, false
	case v == `""` && s.typ != kString:
		return nil, false
	}
	return raw, true
}

func (f *fileStore) set(key string, raw json.RawMessage) error {
	f.values[key] = raw
	return f.save()
}

func (f *fileStore) save() error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	data, err := json.MarshalIndent(f.values, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.path, append(data, '\n'), 0o600)
}
