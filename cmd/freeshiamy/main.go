/*
Package main runs the FreeShiamy input engine.

FreeShiamy resolves typed shape codes into Chinese characters using the
freeshiamy code table, with a phonetic reverse lookup through a zhuyin
spelling table. It can operate as a MessagePack IPC server for keyboard
front ends and editor plugins, or as a CLI for trying codes by hand.

# Usage

Start the server with default settings:

	freeshiamy

Use a custom data directory and enable debug mode:

	freeshiamy -data /path/to/tables -d

Run in CLI mode:

	freeshiamy -c

The data directory holds the .cin tables, freeshiamy.cin and
cht_spells.cin by default. Table names are slash-separated paths relative
to the data directory; absolute or ".." names fall back to the defaults. Both are loaded in the background; until then
keys pass through as plain text.

# Configuration

Configuration lives in freeshiamy.toml under the user config directory
($XDG_CONFIG_HOME/freeshiamy or the platform equivalent) and is created with
defaults on first run:

	[dict]
	data_dir = "data"
	code_table = "freeshiamy.cin"
	spell_table = "cht_spells.cin"
	query_cache = 256

	[candidates]
	inline_limit = 10
	more_limit = 200

	[hint]
	show_shortest_code = true

	[input]
	disable_in_sensitive_fields = true

Flags override the file for the current run.
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/osku/freeshiamy/internal/cli"
	"github.com/osku/freeshiamy/internal/utils"
	"github.com/osku/freeshiamy/pkg/cin"
	"github.com/osku/freeshiamy/pkg/config"
	"github.com/osku/freeshiamy/pkg/dictionary"
	"github.com/osku/freeshiamy/pkg/server"
)

const (
	Version = "0.3.0"
	AppName = "freeshiamy"
	gh      = "https://github.com/osku/freeshiamy"
)

func showVersion() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
	})

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"}).
		Background(lipgloss.AdaptiveColor{Light: "#f2e9e1", Dark: "#26233a"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	logger.SetStyles(styles)

	logger.Print("")
	logger.Print("[ FreeShiamy ] shape code input engine")
	logger.Print("", "version", Version)
	logger.Print("")
	logger.Print("use -h or --help to see available options")
	logger.Print("Github Repo", "gh", gh)
}

// main wires config, dictionary and the chosen front end; it holds no
// input logic itself.
func main() {
	version := flag.Bool("version", false, "Show current version")
	configFile := flag.String("config", "", "Path to a config file")
	dataDir := flag.String("data", "", "Directory containing the .cin tables (default from config)")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	cliMode := flag.Bool("c", false, "Run CLI -- type keys and see candidates")
	noHint := flag.Bool("no-hint", false, "Disable the shortest code hint")
	listTables := flag.Bool("list", false, "List the tables in the data directory and exit")
	flag.Parse()

	if *version {
		showVersion()
		os.Exit(0)
	}

	if *debugMode {
		log.SetLevel(log.DebugLevel)
		log.SetReportTimestamp(true)
	} else {
		log.SetLevel(log.WarnLevel)
	}

	pathResolver, err := utils.NewPathResolver()
	if err != nil {
		log.Fatalf("Failed to initialize path resolver: %v", err)
	}

	appConfig, configPath, err := config.LoadConfigWithPriority(*configFile, pathResolver.GetConfigPath(config.FileName))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Debugf("Using config file: %s", config.GetActiveConfigPath(configPath))
	if *noHint {
		appConfig.Hint.ShowShortestCode = false
	}

	if *dataDir == "" {
		*dataDir = appConfig.Dict.DataDir
	}
	resolvedDataDir := pathResolver.GetDataDir(*dataDir)
	log.Debugf("Using data dir at: %s", resolvedDataDir)
	for k, v := range pathResolver.GetRuntimeInfo() {
		log.Debug("runtime", k, v)
	}

	if *listTables {
		if err := printTables(resolvedDataDir); err != nil {
			log.Fatalf("Failed to list tables: %v", err)
		}
		return
	}

	for _, name := range []string{appConfig.Dict.CodeTable, appConfig.Dict.SpellTable} {
		if err := cin.ValidateTableFile(filepath.Join(resolvedDataDir, name)); err != nil {
			log.Warnf("Table %s unusable, continuing without it: %v", name, err)
		}
	}

	loader := dictionary.NewDirLoader(resolvedDataDir,
		dictionary.WithCodeTable(appConfig.Dict.CodeTable),
		dictionary.WithSpellTable(appConfig.Dict.SpellTable),
		dictionary.WithQueryCache(appConfig.Dict.QueryCache),
	)

	if *cliMode {
		log.SetReportTimestamp(false)
		handler := cli.NewInputHandler(loader, appConfig, os.Stderr)
		loader.Start()
		if err := handler.Start(); err != nil {
			log.Fatalf("CLI error: %v", err)
		}
		return
	}

	loader.Start()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Debug("spawning IPC")
	showStartupInfo(resolvedDataDir, configPath)

	srv := server.NewServer(loader, appConfig, configPath)
	if err := srv.Start(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("Server error: %v", err)
	}
	fmt.Fprintln(os.Stderr, "Exiting...")
}

func printTables(dir string) error {
	tables, err := cin.ListTables(dir)
	if err != nil {
		return err
	}
	if len(tables) == 0 {
		fmt.Fprintf(os.Stderr, "no tables in %s\n", dir)
		return nil
	}
	for _, t := range tables {
		fmt.Fprintf(os.Stderr, "%-24s %10d bytes  %s\n", t.Name, t.Size, t.Path)
	}
	return nil
}

// showStartupInfo prints basic info about the init process to stderr.
func showStartupInfo(dataDir, configPath string) {
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)
	defer log.SetLevel(currentLevel)

	log.Infof("%s %s", AppName, Version)
	log.Infof("Process ID: [ %d ]", os.Getpid())
	log.Infof("data dir: ( %s )", dataDir)
	log.Infof("config: ( %s )", config.GetActiveConfigPath(configPath))
	log.Info("status: loading tables in background")
}
