package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/0xmhha/wincsv/pkg/config"
)

// configCommand handles configuration management subcommands.
type configCommand struct {
	configPath string
	out        io.Writer
	in         io.Reader
}

// Execute runs the config command with given arguments.
func (c *configCommand) Execute(args []string) error {
	if len(args) == 0 {
		return c.showHelp()
	}

	subcommand := args[0]
	subargs := args[1:]

	switch subcommand {
	case "show":
		return c.runShow(subargs)
	case "path":
		return c.runPath()
	case "reset":
		return c.runReset(subargs)
	case "help":
		return c.showHelp()
	default:
		return fmt.Errorf("unknown config subcommand: %s", subcommand)
	}
}

// runShow displays the current configuration.
func (c *configCommand) runShow(args []string) error {
	fs := flag.NewFlagSet("config show", flag.ContinueOnError)
	format := fs.String("format", "yaml", "output format (yaml, json)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	loader := config.NewLoader(c.configPath)
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	switch *format {
	case "json":
		return c.showJSON(cfg)
	case "yaml":
		return c.showYAML(cfg, loader.Source())
	default:
		return fmt.Errorf("unknown format: %s", *format)
	}
}

// showYAML displays configuration in YAML format.
func (c *configCommand) showYAML(cfg *config.Config, source string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if source == "" {
		source = "defaults (no config file found)"
	}
	_, err = fmt.Fprintf(c.out, "# Current Configuration\n# Source: %s\n\n%s", source, data)
	return err
}

// showJSON displays configuration in JSON format.
func (c *configCommand) showJSON(cfg *config.Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	_, err = fmt.Fprintln(c.out, string(data))
	return err
}

// runPath shows the configuration file search paths.
func (c *configCommand) runPath() error {
	fmt.Fprintln(c.out, "Configuration file search paths (in order of precedence):")
	fmt.Fprintln(c.out)

	for i, p := range config.SearchPaths() {
		exists := "not found"
		if _, err := os.Stat(p); err == nil {
			exists = "found"
		}
		fmt.Fprintf(c.out, "  %d. %s [%s]\n", i+1, p, exists)
	}

	loader := config.NewLoader(c.configPath)
	source := "defaults (no config file found)"
	if _, err := loader.Load(); err != nil {
		source = fmt.Sprintf("invalid (%v)", err)
	} else if loader.Source() != "" {
		source = loader.Source()
	}

	fmt.Fprintln(c.out)
	_, err := fmt.Fprintln(c.out, "Active configuration:", source)
	return err
}

// runReset writes the default configuration to a file.
func (c *configCommand) runReset(args []string) error {
	fs := flag.NewFlagSet("config reset", flag.ContinueOnError)
	force := fs.Bool("force", false, "skip confirmation prompt")
	output := fs.String("output", "", "output path for config file (default: ~/.config/wincsv/config.yaml)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	outputPath := *output
	if outputPath == "" {
		outputPath = config.DefaultConfigPath()
	}

	if _, err := os.Stat(outputPath); err == nil && !*force {
		fmt.Fprintf(c.out, "Configuration file already exists at: %s\n", outputPath)
		fmt.Fprint(c.out, "Overwrite? [y/N]: ")

		response, err := bufio.NewReader(c.in).ReadString('\n')
		response = strings.ToLower(strings.TrimSpace(response))
		if (err != nil && response == "") || (response != "y" && response != "yes") {
			_, err := fmt.Fprintln(c.out, "\nReset cancelled.")
			return err
		}
	}

	if err := config.Save(config.Default(), outputPath); err != nil {
		return err
	}

	_, err := fmt.Fprintf(c.out, "Configuration reset to defaults at: %s\n", outputPath)
	return err
}

// showHelp displays help for config command.
func (c *configCommand) showHelp() error {
	help := `Config - Configuration management

Usage:
  wincsv config <subcommand> [flags]

Subcommands:
  show      Display current configuration
  path      Show configuration file paths
  reset     Write the default configuration to a file

Show Flags:
  -format   Output format (yaml, json) (default: yaml)

Reset Flags:
  -force    Skip confirmation prompt
  -output   Output path for config file

Environment:
  WINCSV_CONFIG, WINCSV_DB, WINCSV_LOG_LEVEL, WINCSV_LOG_FORMAT,
  WINCSV_DELIMITER, WINCSV_QUOTE, WINCSV_ESCAPE, WINCSV_WINDOW_SIZE,
  WINCSV_MAX_RECORD_SIZE, WINCSV_WORKERS, WINCSV_NO_COLOR

Examples:
  # Show current configuration
  wincsv config show

  # Show configuration in JSON format
  wincsv config show -format json

  # Reset without confirmation
  wincsv config reset -force
`
	_, err := fmt.Fprint(c.out, help)
	return err
}
