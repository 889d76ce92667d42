package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
)

type CLI struct {
	EnvFile string `name:"env-file" help:"Path to .env file loaded before reading the environment"`

	Serve   ServeCmd   `cmd:"" default:"1" help:"Run the HTTP API (default)"`
	Migrate MigrateCmd `cmd:"" help:"Apply the database schema and exit"`
	Token   TokenCmd   `cmd:"" help:"Mint an access token for the write endpoints"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out, errOut io.Writer) int {
	var cli CLI

	parser, err := kong.New(&cli,
		kong.Name("eventdesk"),
		kong.Description("Event and attendee API."),
		kong.Writers(out, errOut),
		kong.BindTo(out, (*io.Writer)(nil)),
	)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}

	loadEnvFile(cli.EnvFile, errOut)

	if err := kctx.Run(); err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	return 0
}

// An explicit --env-file must load; a missing default .env is fine.
func loadEnvFile(path string, errOut io.Writer) {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			fmt.Fprintf(errOut, "warning: failed to load env file %s: %v\n", path, err)
		}
		return
	}

	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			fmt.Fprintf(errOut, "warning: failed to load .env: %v\n", err)
		}
	}
}
