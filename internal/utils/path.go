package utils

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"
)

// AppDir is the directory name used under config locations.
const AppDir = "freeshiamy"

// tableGlob matches the table files a data directory must contain.
const tableGlob = "*.cin"

// PathResolver finds the data and config directories relative to the
// binary, the working directory and the user's config location.
type PathResolver struct {
	executableDir string
	homeDir       string
	configDir     string
}

// NewPathResolver creates a resolver for the running binary.
func NewPathResolver() (*PathResolver, error) {
	execDir, err := GetExecutableDir()
	if err != nil {
		return nil, err
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Warnf("Could not determine home directory: %v", err)
		homeDir = os.TempDir()
	}

	pr := &PathResolver{
		executableDir: execDir,
		homeDir:       homeDir,
		configDir:     platformConfigDir(homeDir),
	}
	log.Debugf("PathResolver initialized: execDir=%s, configDir=%s", execDir, pr.configDir)
	return pr, nil
}

func platformConfigDir(homeDir string) string {
	switch runtime.GOOS {
	case "linux":
		if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
			return filepath.Join(configHome, AppDir)
		}
		return filepath.Join(homeDir, ".config", AppDir)
	case "darwin":
		return filepath.Join(homeDir, ".config", AppDir)
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, AppDir)
		}
		return filepath.Join(homeDir, "AppData", "Roaming", AppDir)
	default:
		return filepath.Join(homeDir, "."+AppDir)
	}
}

// GetDataDir resolves the directory holding the .cin tables. Candidates
// are tried in order:
// 1. the given path if absolute
// 2. relative to the executable
// 3. relative to the working directory
// 4. data/ next to the executable, its parent, and the config dir
//
// If none holds a table the executable-relative path is returned so the
// caller can report it.
func (pr *PathResolver) GetDataDir(path string) string {
	candidates := pr.dataDirCandidates(path)
	for _, dir := range candidates {
		if IsTableDir(dir) {
			log.Debugf("Found data directory: %s", dir)
			return dir
		}
		log.Debugf("Data directory candidate not valid: %s", dir)
	}
	return filepath.Join(pr.executableDir, path)
}

func (pr *PathResolver) dataDirCandidates(path string) []string {
	if filepath.IsAbs(path) {
		return []string{path}
	}

	candidates := []string{filepath.Join(pr.executableDir, path)}
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, path))
	}
	return append(candidates,
		filepath.Join(pr.executableDir, "data"),
		filepath.Join(filepath.Dir(pr.executableDir), "data"),
		filepath.Join(pr.configDir, "data"),
	)
}

// IsTableDir reports whether dir exists and contains at least one table.
func IsTableDir(dir string) bool {
	if stat, err := os.Stat(dir); err != nil || !stat.IsDir() {
		return false
	}
	matches, err := filepath.Glob(filepath.Join(dir, tableGlob))
	return err == nil && len(matches) > 0
}

// GetConfigPath returns a writable location for filename, falling back
// to ~/.freeshiamy, the temp dir, then the executable dir.
func (pr *PathResolver) GetConfigPath(filename string) string {
	if CheckDirStatus(pr.configDir).Writable {
		return filepath.Join(pr.configDir, filename)
	}

	fallbacks := []string{
		filepath.Join(pr.homeDir, "."+AppDir),
		filepath.Join(os.TempDir(), AppDir),
		pr.executableDir,
	}
	for _, dir := range fallbacks {
		if CheckDirStatus(dir).Writable {
			path := filepath.Join(dir, filename)
			log.Warnf("Using fallback config location: %s", path)
			return path
		}
	}

	path := filepath.Join(os.TempDir(), filename)
	log.Warnf("Using temporary config file: %s", path)
	return path
}

// GetRuntimeInfo returns path related facts for debug output.
func (pr *PathResolver) GetRuntimeInfo() map[string]string {
	cwd, _ := os.Getwd()
	info := map[string]string{
		"executable_dir": pr.executableDir,
		"current_dir":    cwd,
		"home_dir":       pr.homeDir,
		"config_dir":     pr.configDir,
		"os":             runtime.GOOS,
		"arch":           runtime.GOARCH,
	}
	for _, env := range []string{"XDG_CONFIG_HOME", "APPDATA"} {
		if value := os.Getenv(env); value != "" {
			info["env_"+strings.ToLower(env)] = value
		}
	}
	return info
}
