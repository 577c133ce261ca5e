// Package main provides the wincsv CLI application.
//
// wincsv reads large delimited text files through memory-mapped windows.
// It prints raw records or tokenized fields, summarises files, follows
// growing files and exports records to Excel workbooks.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
)

// version is set during build time.
var version = "dev"

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run executes the main application logic.
func run(args []string, out io.Writer) error {
	// Define global flags.
	fs := flag.NewFlagSet("wincsv", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to configuration file")
	showVersion := fs.Bool("version", false, "show version information")

	if err := fs.Parse(args); err != nil {
		return err
	}

	// Handle version flag.
	if *showVersion {
		_, err := fmt.Fprintf(out, "wincsv %s\n", version)
		return err
	}

	// Get command.
	args = fs.Args()
	if len(args) == 0 {
		return showUsage(out)
	}

	command := args[0]

	switch command {
	case "records":
		return runCommand(parseRecordsCommand(*configPath, out, args[1:]))
	case "fields":
		return runCommand(parseFieldsCommand(*configPath, out, args[1:]))
	case "stats":
		return runCommand(parseStatsCommand(*configPath, out, args[1:]))
	case "follow":
		return runCommand(parseFollowCommand(*configPath, out, args[1:]))
	case "list":
		return runCommand(parseListCommand(*configPath, out, args[1:]))
	case "export":
		return runCommand(parseExportCommand(*configPath, out, args[1:]))
	case "config":
		cmd := &configCommand{configPath: *configPath, out: out, in: os.Stdin}
		return cmd.Execute(args[1:])
	case "help":
		return showUsage(out)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

// command is a parsed subcommand.
type command interface {
	Execute() error
}

func runCommand(cmd command, err error) error {
	if err != nil {
		return err
	}
	return cmd.Execute()
}

// showUsage displays usage information.
func showUsage(out io.Writer) error {
	usage := `wincsv - windowed memory-mapped reader for large delimited files

Usage:
  wincsv [flags] <command> [command flags] <paths...>

Commands:
  records     Print raw records, optionally with their byte offsets
  fields      Print tokenized fields (table, json, simple)
  stats       Summarise record shape across files and directories
  follow      Print new records as files grow
  list        List discovered data files
  export      Write records to an Excel workbook
  config      Configuration management (show, path, reset)
  help        Show this help message

Global Flags:
  -config     Path to configuration file
  -version    Show version information

Reader Flags (records, fields, stats, follow, export):
  -delimiter  Field delimiter (a single byte, tab, space, pipe, semicolon)
  -quote      Quote character
  -escape     Escape character (equal to -quote disables backslash escapes)
  -window     Bytes mapped per window
  -max-record Largest record that may straddle windows

Records Command Flags:
  -start       Byte offset to start at (must be a record boundary)
  -limit       Stop after N records
  -offsets     Prefix each record with its byte offset
  -resume      Start at the saved position for the file
  -checkpoint  Save the position after the last complete record

Fields Command Flags:
  -header     Treat the first record as column names
  -limit      Stop after N records
  -format     Output format (table, json, simple)
  -compact    Compact output
  -width      Maximum column width (0 = unlimited)

Stats Command Flags:
  -recursive    Descend into subdirectories
  -header       Treat the first record of each file as column names
  -percentiles  Show record length percentiles
  -format       Output format (table, json, simple)

Follow Command Flags:
  -skip-existing  Start new files at their end
  -poll           Polling interval in addition to file events (0 = off)
  -offsets        Prefix each record with its byte offset

Export Command Flags:
  -o          Output workbook (default: input name with .xlsx)
  -sheet      Sheet name
  -header     Write the first record as a bold header row
  -numbers    Store numeric fields as numbers

Examples:
  # Print the first 10 records
  wincsv records -limit 10 data.csv

  # Show a tab-separated file as a table
  wincsv fields -delimiter tab -header -limit 20 data.tsv

  # Summarise every CSV under a directory
  wincsv stats -recursive -header ./exports

  # Continue reading where the last run stopped
  wincsv records -resume -checkpoint data.csv

  # Print rows appended to a growing file
  wincsv follow -skip-existing app.csv

  # Convert to Excel
  wincsv export -header -numbers -o report.xlsx data.csv

Version: %s
`

	_, err := fmt.Fprintf(out, usage, version)
	return err
}
