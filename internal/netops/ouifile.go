package netops

import (
	"fmt"
	"os"
	"path/filepath"
)

// configDirName is the per-user configuration directory under ~/.config.
const configDirName = "netscout"

// ConfigDir returns the per-user netscout configuration directory, creating
// it if necessary. Used for the manufacturer database download target and the
// external-IP history file.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("netops: resolve home directory: %w", err)
	}
	dir := filepath.Join(home, ".config", configDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("netops: create config directory: %w", err)
	}
	return dir, nil
}

// manufSearchPaths lists the preferred manufacturer-database locations in
// lookup order. The project-local path wins when present.
func manufSearchPaths() []string {
	paths := []string{filepath.Join("data", "manuf")}
	if dir, err := ConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "manuf"))
	}
	return paths
}

// FindManufFile locates the manufacturer database, returning its path and
// whether one was found.
func FindManufFile() (string, bool) {
	for _, p := range manufSearchPaths() {
		if info, err := os.Stat(p); err == nil && !info.IsDir() && info.Size() > 0 {
			return p, true
		}
	}
	return "", false
}

// WritableManufPath returns the path where a fresh manufacturer database
// should be written: the project-local data directory when writable, the
// user config directory otherwise.
func WritableManufPath() (string, error) {
	local := filepath.Join("data", "manuf")
	if err := os.MkdirAll(filepath.Dir(local), 0o755); err == nil {
		probe := filepath.Join(filepath.Dir(local), ".write_test")
		if f, err := os.Create(probe); err == nil {
			_ = f.Close()
			_ = os.Remove(probe)
			return local, nil
		}
	}

	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "manuf"), nil
}

// WriteFileAtomic writes data to path via a temp file in the same directory
// followed by a rename, so readers never observe a partial file.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
