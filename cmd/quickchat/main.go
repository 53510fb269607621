// ABOUTME: Terminal client for QuickChat one-to-one messaging
// ABOUTME: Dispatches account subcommands and the interactive chat session

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"

	"github.com/2389/quickchat/internal/auth"
	"github.com/2389/quickchat/internal/client"
	"github.com/2389/quickchat/internal/config"
)

const banner = `
              _      _        _           _
  __ _ _  _(_)__| |__  ___| |_  __ _| |_
 / _' | || | / _| / / / _| ' \/ _' |  _|
 \__, |\_,_|_\__|_\_\ \__|_||_\__,_|\__|
    |_|
`

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		printUsage()
		return
	}

	a, err := newApp()
	if err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
	defer a.close()

	switch cmd {
	case "login":
		err = cmdLogin(a, args)
	case "signup":
		err = cmdSignup(a, args)
	case "logout":
		err = cmdLogout(a)
	case "whoami":
		err = cmdWhoami(a)
	case "chat":
		err = cmdChat(a)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		a.close()
		os.Exit(1)
	}

	if err != nil {
		color.Red("Error: %v\n", err)
		a.close()
		os.Exit(1)
	}
}

func printUsage() {
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	cyan.Print(banner)
	fmt.Println()
	fmt.Println("Usage: quickchat <command> [args]")
	fmt.Println()
	yellow.Println("Commands:")
	fmt.Println("  login --email <e> --password <p>                        Log in and save the session")
	fmt.Println("  signup --name <n> --email <e> --password <p> --bio <b>  Create an account")
	fmt.Println("  logout                                                  Forget the saved session")
	fmt.Println("  whoami                                                  Show the logged-in user")
	fmt.Println("  chat                                                    Start an interactive session")
	fmt.Println()
	yellow.Println("Environment:")
	fmt.Println("  QUICKCHAT_CONFIG     Config file (default: ~/.config/quickchat/config.yaml)")
	fmt.Println("  QUICKCHAT_TOKEN      Session token (overrides the saved one)")
	fmt.Println("  QUICKCHAT_PASSWORD   Password for login/signup when --password is omitted")
	fmt.Println()
}

// app holds what every subcommand needs.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	tokens   *auth.TokenStore
	api      *client.Client
	closeLog func() error
}

func newApp() (*app, error) {
	cfg, _, err := config.LoadDefault()
	if err != nil {
		return nil, err
	}

	logger, closeLog, err := setupLogger(cfg.Logging)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	tokens, err := auth.NewTokenStore(cfg.Session.TokenPath)
	if err != nil {
		_ = closeLog()
		return nil, err
	}

	api := client.New(client.Config{
		BaseURL: cfg.Server.URL,
		Timeout: cfg.Server.RequestTimeout,
	}, logger)

	return &app{
		cfg:      cfg,
		logger:   logger,
		tokens:   tokens,
		api:      api,
		closeLog: closeLog,
	}, nil
}

func (a *app) close() {
	if a.closeLog != nil {
		_ = a.closeLog()
		a.closeLog = nil
	}
}
