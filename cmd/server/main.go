// Package main provides the entry point of the OpenAI curl generator: an API
// server shared by the capture and generator pages, plus one-shot extract
// and generate modes for the terminal.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"

	"github.com/vignesh-gep/OpenAi-Curl-Generator/internal/cmd"
	"github.com/vignesh-gep/OpenAi-Curl-Generator/internal/config"
	"github.com/vignesh-gep/OpenAi-Curl-Generator/internal/extract"
	"github.com/vignesh-gep/OpenAi-Curl-Generator/internal/logging"
	log "github.com/vignesh-gep/OpenAi-Curl-Generator/internal/logging"
	"github.com/vignesh-gep/OpenAi-Curl-Generator/internal/render"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func init() {
	logging.SetupBaseLogger()
}

func main() {
	var initConfig bool
	var openBrowser bool
	var showVersion bool
	var configPath string
	var modeFlag string
	var extractPath string
	var toolsPath string
	var messagesPath string
	var formatFlag string

	flag.StringVar(&configPath, "config", defaultConfigPath(), "Configure File Path")
	flag.BoolVar(&initConfig, "init", false, "Write a default config file and exit")
	flag.BoolVar(&openBrowser, "open", false, "Open the generator page in the browser")
	flag.StringVar(&modeFlag, "mode", "tools", "What --extract looks for: tools or messages")
	flag.StringVar(&extractPath, "extract", "", "Extract from a snapshot JSON or page text file and print the payload")
	flag.StringVar(&toolsPath, "tools", "", "Tools JSON file for generation")
	flag.StringVar(&messagesPath, "messages", "", "Messages JSON file; generates a request and prints it")
	flag.StringVar(&formatFlag, "format", "curl", "Output of generation: body, curl or powershell")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("curlgen Version: %s, Commit: %s, BuiltAt: %s\n", Version, Commit, BuildDate)
		return
	}

	if initConfig {
		if err := cmd.DoInitConfig(os.Stdout, configPath); err != nil {
			log.Fatalf("%v", err)
		}
		return
	}

	wd, err := os.Getwd()
	if err != nil {
		log.Fatalf("failed to get working directory: %v", err)
	}
	if errLoad := godotenv.Load(filepath.Join(wd, ".env")); errLoad != nil {
		if !errors.Is(errLoad, os.ErrNotExist) {
			log.WithError(errLoad).Warn("failed to load .env file")
		}
	}

	cfg, err := config.LoadConfigOptional(configPath, true)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg.ApplyEnv(config.EnvLookup)

	log.SetDebug(cfg.Debug)
	if err := log.ConfigureLogOutput(cfg.LoggingToFile, cfg.LogsDir); err != nil {
		log.Fatalf("failed to configure log output: %v", err)
	}

	switch {
	case extractPath != "":
		mode, errMode := extract.ParseMode(modeFlag)
		if errMode != nil {
			log.Fatalf("%v", errMode)
		}
		if errExtract := cmd.DoExtract(os.Stdout, cfg, extractPath, mode); errExtract != nil {
			log.Fatalf("%v", errExtract)
		}
	case messagesPath != "":
		format, errFormat := render.ParseFormat(formatFlag)
		if errFormat != nil {
			log.Fatalf("%v", errFormat)
		}
		if errGenerate := cmd.DoGenerate(os.Stdout, cfg, toolsPath, messagesPath, format); errGenerate != nil {
			log.Fatalf("%v", errGenerate)
		}
	default:
		cmd.StartService(cfg, configPath, openBrowser)
	}
}

// defaultConfigPath is $XDG_CONFIG_HOME/curlgen/config.yaml, falling back to
// ./config.yaml when no config directory is known.
func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return "config.yaml"
	}
	return filepath.Join(dir, "curlgen", "config.yaml")
}
