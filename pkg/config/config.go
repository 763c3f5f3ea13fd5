/*
Package config manages the TOML config of FreeShiamy.
*/
package config

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/osku/freeshiamy/internal/utils"
)

// FileName is the config file name inside the config directory.
const FileName = "freeshiamy.toml"

// Config holds the entire config structure
type Config struct {
	Dict       DictConfig       `toml:"dict"`
	Candidates CandidatesConfig `toml:"candidates"`
	Hint       HintConfig       `toml:"hint"`
	Input      InputConfig      `toml:"input"`
}

// DictConfig locates the tables. CodeTable and SpellTable are
// slash-separated names relative to DataDir.
type DictConfig struct {
	DataDir    string `toml:"data_dir"`
	CodeTable  string `toml:"code_table"`
	SpellTable string `toml:"spell_table"`
	// QueryCache is the number of prefix queries kept; 0 disables caching.
	QueryCache int `toml:"query_cache"`
}

// CandidatesConfig limits how many candidates are shown. The composer
// itself never truncates.
type CandidatesConfig struct {
	InlineLimit int `toml:"inline_limit"`
	MoreLimit   int `toml:"more_limit"`
}

type HintConfig struct {
	ShowShortestCode bool `toml:"show_shortest_code"`
}

type InputConfig struct {
	DisableInSensitiveFields bool `toml:"disable_in_sensitive_fields"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Dict: DictConfig{
			DataDir:    "data",
			CodeTable:  "freeshiamy.cin",
			SpellTable: "cht_spells.cin",
			QueryCache: 256,
		},
		Candidates: CandidatesConfig{
			InlineLimit: 10,
			MoreLimit:   200,
		},
		Hint: HintConfig{
			ShowShortestCode: true,
		},
		Input: InputConfig{
			DisableInSensitiveFields: true,
		},
	}
}

// Normalize clamps values into their valid ranges.
func (c *Config) Normalize() {
	defaults := DefaultConfig()
	if c.Candidates.InlineLimit < 1 {
		c.Candidates.InlineLimit = 1
	}
	if c.Candidates.MoreLimit < c.Candidates.InlineLimit {
		c.Candidates.MoreLimit = c.Candidates.InlineLimit
	}
	if c.Dict.QueryCache < 0 {
		c.Dict.QueryCache = 0
	}
	c.Dict.CodeTable = tableName(c.Dict.CodeTable, defaults.Dict.CodeTable)
	c.Dict.SpellTable = tableName(c.Dict.SpellTable, defaults.Dict.SpellTable)
	if c.Dict.DataDir == "" {
		c.Dict.DataDir = defaults.Dict.DataDir
	}
}

// tableName keeps name when it is a slash-separated path inside the data
// dir; absolute paths and ".." segments fall back to def.
func tableName(name, def string) string {
	if name == "" {
		return def
	}
	if !fs.ValidPath(name) {
		log.Warnf("Table name %q must be relative to data_dir, using %s", name, def)
		return def
	}
	return name
}

// LoadConfigWithPriority loads config with priority:
// 1. custom path from the -config flag
// 2. defaultPath, created with defaults if missing
// 3. builtin defaults
//
// It returns the path the config was read from, "" for builtin defaults.
func LoadConfigWithPriority(customPath, defaultPath string) (*Config, string, error) {
	if customPath != "" {
		if _, statErr := os.Stat(customPath); statErr == nil {
			config, err := LoadConfig(customPath)
			if err == nil {
				log.Debugf("Loaded config from custom path: %s", customPath)
				return config, customPath, nil
			}
			log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customPath, err)
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customPath, statErr)
		}
	}

	if defaultPath == "" {
		log.Warn("No default config path. Using built-in defaults...")
		return DefaultConfig(), "", nil
	}
	config, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at %s: %v. Using built-in defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// InitConfig loads config from file or creates it with defaults if missing.
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)
	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	return LoadConfig(configPath)
}

// LoadConfig loads a TOML file over the defaults. A file that does not
// fit the typed layout is recovered key by key.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()
	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		return tryPartialParse(configPath)
	}
	config.Normalize()
	return config, nil
}

// tryPartialParse keeps every well-typed value of a file that failed to
// decode as a whole.
func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	raw, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if section, ok := utils.ExtractSection(raw, "dict"); ok {
		extractDictConfig(section, &config.Dict)
	}
	if section, ok := utils.ExtractSection(raw, "candidates"); ok {
		extractCandidatesConfig(section, &config.Candidates)
	}
	if section, ok := utils.ExtractSection(raw, "hint"); ok {
		if val, ok := utils.ExtractBool(section, "show_shortest_code"); ok {
			config.Hint.ShowShortestCode = val
		}
	}
	if section, ok := utils.ExtractSection(raw, "input"); ok {
		if val, ok := utils.ExtractBool(section, "disable_in_sensitive_fields"); ok {
			config.Input.DisableInSensitiveFields = val
		}
	}
	config.Normalize()
	return config, nil
}

func extractDictConfig(data map[string]any, dict *DictConfig) {
	if val, ok := utils.ExtractString(data, "data_dir"); ok {
		dict.DataDir = val
	}
	if val, ok := utils.ExtractString(data, "code_table"); ok {
		dict.CodeTable = val
	}
	if val, ok := utils.ExtractString(data, "spell_table"); ok {
		dict.SpellTable = val
	}
	if val, ok := utils.ExtractInt64(data, "query_cache"); ok {
		dict.QueryCache = val
	}
}

func extractCandidatesConfig(data map[string]any, candidates *CandidatesConfig) {
	if val, ok := utils.ExtractInt64(data, "inline_limit"); ok {
		candidates.InlineLimit = val
	}
	if val, ok := utils.ExtractInt64(data, "more_limit"); ok {
		candidates.MoreLimit = val
	}
}

// GetActiveConfigPath returns the absolute path of the loaded config file.
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		return "builtin defaults"
	}
	return utils.GetAbsolutePath(configPath)
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}

// Changes holds the runtime adjustable settings; nil fields are left as is.
type Changes struct {
	InlineLimit              *int
	MoreLimit                *int
	ShowShortestCode         *bool
	DisableInSensitiveFields *bool
}

// Update applies changes, clamps the result and saves it to configPath.
// An empty configPath only updates the in-memory config.
func (c *Config) Update(configPath string, changes Changes) error {
	if changes.InlineLimit != nil {
		c.Candidates.InlineLimit = *changes.InlineLimit
	}
	if changes.MoreLimit != nil {
		c.Candidates.MoreLimit = *changes.MoreLimit
	}
	if changes.ShowShortestCode != nil {
		c.Hint.ShowShortestCode = *changes.ShowShortestCode
	}
	if changes.DisableInSensitiveFields != nil {
		c.Input.DisableInSensitiveFields = *changes.DisableInSensitiveFields
	}
	c.Normalize()
	if configPath == "" {
		return nil
	}
	return SaveConfig(c, configPath)
}
