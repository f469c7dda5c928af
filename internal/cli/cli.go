// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdLogin
	CmdRegister
	CmdLogout
	CmdWhoami
	CmdSessions
	CmdHistory
	CmdClear
	CmdAsk
	CmdChat
	CmdExport
	CmdDevServer
	CmdConfig
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet     bool
	Verbose   bool
	JSON      bool
	ServerURL string // --server overrides server.url

	// Command-specific
	Subcommand string
	Email      string
	SessionID  string
	Message    string
	Format     string
	Output     string
	Addr       string

	// Raw args (remaining after the command name)
	Raw []string
}

const usageText = `parley - terminal client for the parley chat service

Usage:
  parley                         Start the TUI (default)
  parley login [--email E]       Sign in
  parley register [--email E]    Create an account and sign in
  parley logout                  Forget the stored token
  parley whoami [--json]         Show the signed-in account
  parley sessions [--json]       List conversations
  parley history <id> [--json]   Print a conversation
  parley clear <id>              Delete a conversation
  parley ask [--session ID] <message>
                                 Send one message and print the reply
  parley chat [--session ID]     Line-mode chat
  parley export <id> [--format md|json|html] [--output FILE]
                                 Save a conversation to a file
  parley devserver [--addr A]    Run a local development backend
  parley config [show|path|init] Configuration
  parley version                 Version information

Global flags:
  --server URL    Backend root URL (default from config)
  --json          Machine-readable output
  -q, --quiet     Less output
  -v, --verbose   Debug logging

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage(w io.Writer) {
	fmt.Fprintf(w, usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "parley version %s\n", Version)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Build date: %s\n", BuildDate)
	fmt.Fprintf(w, "  Go:         %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// Parse parses os.Args.
func Parse() (Command, Args) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses command-line arguments and returns the command and args.
func ParseArgs(argv []string) (Command, Args) {
	remaining, parsedArgs := parseGlobalFlags(argv)

	if len(remaining) == 0 {
		return CmdTUI, parsedArgs
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsedArgs.Raw = remaining
	p := NewArgParser(remaining, "json")
	if p.BoolFlag("json") {
		parsedArgs.JSON = true
	}

	switch cmd {
	case "tui":
		return CmdTUI, parsedArgs
	case "login":
		parsedArgs.Email = p.Flag("email")
		return CmdLogin, parsedArgs
	case "register", "signup":
		parsedArgs.Email = p.Flag("email")
		return CmdRegister, parsedArgs
	case "logout":
		return CmdLogout, parsedArgs
	case "whoami", "me":
		return CmdWhoami, parsedArgs
	case "sessions", "ls":
		return CmdSessions, parsedArgs
	case "history", "show":
		parsedArgs.SessionID = p.Positional(0)
		return CmdHistory, parsedArgs
	case "clear", "rm":
		parsedArgs.SessionID = p.Positional(0)
		return CmdClear, parsedArgs
	case "ask":
		parsedArgs.SessionID = p.FlagAny("session", "s")
		parsedArgs.Message = JoinPositionalArgs(p, 0)
		return CmdAsk, parsedArgs
	case "chat":
		parsedArgs.SessionID = p.FlagAny("session", "s")
		return CmdChat, parsedArgs
	case "export":
		parsedArgs.SessionID = p.Positional(0)
		parsedArgs.Format = p.FlagOrDefault("format", "md")
		parsedArgs.Output = p.FlagAny("output", "o")
		return CmdExport, parsedArgs
	case "devserver", "dev":
		parsedArgs.Addr = p.Flag("addr")
		return CmdDevServer, parsedArgs
	case "config":
		parsedArgs.Subcommand = p.Subcommand()
		return CmdConfig, parsedArgs
	case "version", "--version":
		return CmdVersion, parsedArgs
	case "help", "-h", "--help":
		return CmdHelp, parsedArgs
	default:
		parsedArgs.Subcommand = cmd
		return CmdHelp, parsedArgs
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsedArgs Args

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-q", "--quiet":
			parsedArgs.Quiet = true
		case "-v", "--verbose":
			parsedArgs.Verbose = true
		case "--json":
			parsedArgs.JSON = true
		case "--server":
			if i+1 < len(args) {
				i++
				parsedArgs.ServerURL = args[i]
			}
		default:
			if strings.HasPrefix(arg, "--server=") {
				parsedArgs.ServerURL = strings.TrimPrefix(arg, "--server=")
			} else {
				remaining = append(remaining, arg)
			}
		}
	}

	return remaining, parsedArgs
}
