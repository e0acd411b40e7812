// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ManuGH/trackgate/internal/config"
	"github.com/ManuGH/trackgate/internal/version"
)

const redacted = "***"

var stdout io.Writer = os.Stdout

func runConfigCLI(args []string) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printConfigUsage()
		return 0
	}

	switch args[0] {
	case "validate":
		return runConfigValidate(args[1:])
	case "dump":
		return runConfigDump(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown subcommand: %s\n\n", args[0])
		printConfigUsage()
		return 2
	}
}

func printConfigUsage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  trackgate config validate [--file|-f config.yaml]")
	fmt.Fprintln(os.Stderr, "  trackgate config dump [--file|-f config.yaml] [--format=yaml|json]")
}

func loadForCLI(name string, args []string, extra func(*flag.FlagSet)) (config.AppConfig, string, int) {
	fs := flag.NewFlagSet("trackgate config "+name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var file string
	fs.StringVar(&file, "file", "", "path to YAML configuration file")
	fs.StringVar(&file, "f", "", "path to YAML configuration file (shorthand)")
	if extra != nil {
		extra(fs)
	}
	if err := fs.Parse(args); err != nil {
		return config.AppConfig{}, "", 2
	}

	path := resolveConfigPath(file)
	cfg, err := config.NewLoader(path, version.Version).Load()
	if err != nil {
		source := path
		if source == "" {
			source = "environment"
		}
		fmt.Fprintf(os.Stderr, "Configuration error in %s:\n  %v\n", source, err)
		return cfg, path, 1
	}
	return cfg, path, 0
}

func runConfigValidate(args []string) int {
	_, path, code := loadForCLI("validate", args, nil)
	if code != 0 {
		return code
	}
	if path == "" {
		path = "environment configuration"
	}
	fmt.Fprintf(stdout, "%s is valid\n", path)
	return 0
}

func runConfigDump(args []string) int {
	var format string
	cfg, _, code := loadForCLI("dump", args, func(fs *flag.FlagSet) {
		fs.StringVar(&format, "format", "yaml", "output format: yaml or json")
	})
	if code != 0 {
		return code
	}
	redactSecrets(&cfg)

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "yaml", "yml":
		enc := yaml.NewEncoder(stdout)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode YAML: %v\n", err)
			return 1
		}
		_ = enc.Close()
		return 0
	case "json":
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown format: %s\n", format)
		return 2
	}
}

func redactSecrets(cfg *config.AppConfig) {
	if cfg.Secret != "" {
		cfg.Secret = redacted
	}
	if cfg.Cache.RedisPassword != "" {
		cfg.Cache.RedisPassword = redacted
	}
	for i := range cfg.Viewers {
		if cfg.Viewers[i].Token != "" {
			cfg.Viewers[i].Token = redacted
		}
	}
}
