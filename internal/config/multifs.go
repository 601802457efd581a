package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// MultiFSFilesystem is one entry of the multi-filesystem
// configuration shipped with ScoutAM.
type MultiFSFilesystem struct {
	Mount  string `yaml:"mount"`
	Device string `yaml:"device,omitempty"`
}

// MultiFSFile is the parsed multifs.yaml structure:
// filesystems: [{mount, device}]
type MultiFSFile struct {
	Filesystems []MultiFSFilesystem `yaml:"filesystems"`
}

// LoadMultiFS parses the multifs.yaml configuration. A missing file
// is not an error: single-filesystem installs do not ship one.
func LoadMultiFS(path string) (MultiFSFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return MultiFSFile{}, nil
		}
		return MultiFSFile{}, fmt.Errorf("read %s: %w", path, err)
	}

	var parsed MultiFSFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return MultiFSFile{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return parsed, nil
}

// Mounts returns the configured mount points.
func (f MultiFSFile) Mounts() []string {
	mounts := make([]string, 0, len(f.Filesystems))
	for _, fs := range f.Filesystems {
		if fs.Mount != "" {
			mounts = append(mounts, fs.Mount)
		}
	}
	return mounts
}
