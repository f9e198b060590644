// Package config resolves the engine's config root and persists named
// RepoSpec/ArchiveSpec files under it as YAML.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/snapsync/snapsync/internal/ergiberr"
	"github.com/snapsync/snapsync/pkg/models"
)

const (
	envConfigDir = "ERGIBUS_CONFIG_DIR"
	appName      = "ergictl"
	reposSubdir  = "repos"
	archivesDir  = "archives"
)

// Root resolves the config directory: the ERGIBUS_CONFIG_DIR environment
// variable wins when set and non-empty (expanding a leading "~"); an
// empty value falls through to the platform default, same as when the
// variable is unset at all.
func Root() (string, error) {
	if v, ok := os.LookupEnv(envConfigDir); ok && v != "" {
		if v == "~" || strings.HasPrefix(v, "~/") {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", ergiberr.IOErr(v, err)
			}
			return filepath.Join(home, strings.TrimPrefix(v, "~")), nil
		}
		return v, nil
	}
	return filepath.Join(xdg.ConfigHome, appName), nil
}

// ReposDir returns the directory individual RepoSpec files live under.
func ReposDir() (string, error) {
	root, err := Root()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, reposSubdir), nil
}

// ArchivesDir returns the directory individual ArchiveSpec files live
// under.
func ArchivesDir() (string, error) {
	root, err := Root()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, archivesDir), nil
}

// SaveRepoSpec persists spec under name, refusing to overwrite an
// existing one.
func SaveRepoSpec(name string, spec models.RepoSpec) error {
	dir, err := ReposDir()
	if err != nil {
		return err
	}
	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); err == nil {
		return ergiberr.New(ergiberr.RepoExists, name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ergiberr.IOErr(dir, err)
	}
	data, err := yaml.Marshal(spec)
	if err != nil {
		return ergiberr.Wrap(ergiberr.Serialization, name, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return ergiberr.IOErr(path, err)
	}
	return nil
}

// LoadRepoSpec reads a previously saved RepoSpec by name.
func LoadRepoSpec(name string) (models.RepoSpec, error) {
	dir, err := ReposDir()
	if err != nil {
		return models.RepoSpec{}, err
	}
	path := filepath.Join(dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return models.RepoSpec{}, ergiberr.New(ergiberr.UnknownRepo, name)
		}
		return models.RepoSpec{}, ergiberr.IOErr(path, err)
	}
	var spec models.RepoSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return models.RepoSpec{}, ergiberr.Wrap(ergiberr.Serialization, name, err)
	}
	return spec, nil
}

// DeleteRepoSpec removes a saved RepoSpec by name.
func DeleteRepoSpec(name string) error {
	dir, err := ReposDir()
	if err != nil {
		return err
	}
	path := filepath.Join(dir, name)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return ergiberr.New(ergiberr.UnknownRepo, name)
		}
		return ergiberr.IOErr(path, err)
	}
	return nil
}

// ListRepoNames lists every saved repo name.
func ListRepoNames() ([]string, error) {
	dir, err := ReposDir()
	if err != nil {
		return nil, err
	}
	return listNames(dir)
}

// SaveArchiveSpec persists spec under name, refusing to overwrite an
// existing one. Every inclusion path must be absolute — relative
// inclusions would resolve differently depending on the working
// directory a backup happens to run from.
func SaveArchiveSpec(name string, spec models.ArchiveSpec) error {
	for _, inclusion := range spec.Inclusions {
		if !filepath.IsAbs(inclusion) {
			return fmt.Errorf("config: archive %q: inclusion %q is not an absolute path", name, inclusion)
		}
	}

	dir, err := ArchivesDir()
	if err != nil {
		return err
	}
	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config: archive %q already exists", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ergiberr.IOErr(dir, err)
	}
	data, err := yaml.Marshal(spec)
	if err != nil {
		return ergiberr.Wrap(ergiberr.Serialization, name, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return ergiberr.IOErr(path, err)
	}
	return nil
}

// LoadArchiveSpec reads a previously saved ArchiveSpec by name.
func LoadArchiveSpec(name string) (models.ArchiveSpec, error) {
	dir, err := ArchivesDir()
	if err != nil {
		return models.ArchiveSpec{}, err
	}
	path := filepath.Join(dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return models.ArchiveSpec{}, fmt.Errorf("config: unknown archive %q", name)
		}
		return models.ArchiveSpec{}, ergiberr.IOErr(path, err)
	}
	var spec models.ArchiveSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return models.ArchiveSpec{}, ergiberr.Wrap(ergiberr.Serialization, name, err)
	}
	return spec, nil
}

// DeleteArchiveSpec removes a saved ArchiveSpec by name.
func DeleteArchiveSpec(name string) error {
	dir, err := ArchivesDir()
	if err != nil {
		return err
	}
	path := filepath.Join(dir, name)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("config: unknown archive %q", name)
		}
		return ergiberr.IOErr(path, err)
	}
	return nil
}

// ListArchiveNames lists every saved archive name.
func ListArchiveNames() ([]string, error) {
	dir, err := ArchivesDir()
	if err != nil {
		return nil, err
	}
	return listNames(dir)
}

func listNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, ergiberr.IOErr(dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}
