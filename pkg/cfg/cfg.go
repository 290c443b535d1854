package cfg

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
)

// LoadConfigByDir decodes every *.toml file under dir into out, in
// lexical order, so later files override earlier ones.
func LoadConfigByDir(dir string, out interface{}) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if filepath.Ext(e.Name()) == ".toml" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}

	if len(files) == 0 {
		return fmt.Errorf("no toml file found in %s", dir)
	}

	sort.Strings(files)

	for _, f := range files {
		if _, err := toml.DecodeFile(f, out); err != nil {
			return fmt.Errorf("failed to decode %s: %v", f, err)
		}
	}

	return nil
}
