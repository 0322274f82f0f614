// Command sqlitescan reads SQLite database files without the SQLite library.
// It answers .dbinfo, .tables, .fingerprint, count and simple select
// commands, compares answers against a reference engine, and can serve
// commands over a WebSocket.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/FocuswithJustin/sqlitescan/core/sqlite"
	"github.com/FocuswithJustin/sqlitescan/internal/api"
	"github.com/FocuswithJustin/sqlitescan/internal/logging"
	"github.com/FocuswithJustin/sqlitescan/internal/render"
	"github.com/FocuswithJustin/sqlitescan/internal/validation"
)

const version = "0.1.0"

// Globals are flags shared by every command.
type Globals struct {
	LogLevel  string `name:"log-level" help:"Log level (debug, info, warn, error)" default:"warn" env:"SQLITESCAN_LOG_LEVEL" enum:"debug,info,warn,error"`
	LogFormat string `name:"log-format" help:"Log format (text, json)" default:"text" env:"SQLITESCAN_LOG_FORMAT" enum:"text,json"`
	NoMmap    bool   `name:"no-mmap" help:"Read pages with positional reads instead of mmap"`
	MaxPages  int    `name:"max-pages" help:"Largest number of pages one traversal may visit (0 = default)" default:"0"`
}

// options converts the global flags to open options.
func (g *Globals) options() sqlite.Options {
	return sqlite.Options{
		DisableMmap: g.NoMmap,
		MaxPages:    g.MaxPages,
	}
}

// open validates path and opens the database with the global options.
func (g *Globals) open(path string) (*sqlite.DB, error) {
	if err := validation.ValidatePath(path); err != nil {
		return nil, fmt.Errorf("invalid database path: %w", err)
	}
	return sqlite.Open(path, g.options())
}

// CLI defines the command-line interface for sqlitescan.
type CLI struct {
	Globals

	Query   QueryCmd   `cmd:"" default:"withargs" help:"Run one command against a database (default)"`
	Verify  VerifyCmd  `cmd:"" help:"Compare a command's answer with the reference SQLite engine"`
	Serve   ServeCmd   `cmd:"" help:"Serve commands over a WebSocket"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// QueryCmd runs one command and prints its result.
type QueryCmd struct {
	Database string `arg:"" help:"Path to the database file (.xz files are decompressed)" type:"existingfile"`
	Command  string `arg:"" help:"Command: .dbinfo, .tables, .fingerprint, or a select statement"`
	Format   string `short:"f" help:"Output format (text, json, xml)" default:"text" enum:"text,json,xml"`
}

func (c *QueryCmd) Run(g *Globals, out io.Writer) error {
	format, err := render.ParseFormat(c.Format)
	if err != nil {
		return err
	}

	db, err := g.open(c.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := logging.WithRequestID(context.Background(), logging.NewRequestID())
	res, err := db.Exec(ctx, c.Command)
	if err != nil {
		return err
	}
	return render.Write(out, format, res)
}

// VerifyCmd checks a command against the reference engine.
type VerifyCmd struct {
	Database string `arg:"" help:"Path to the database file" type:"existingfile"`
	Command  string `arg:"" help:"Command: .tables or a select statement"`
	JSON     bool   `help:"Print the full comparison as JSON"`
}

func (c *VerifyCmd) Run(g *Globals, out io.Writer) error {
	db, err := g.open(c.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := logging.WithRequestID(context.Background(), logging.NewRequestID())
	d, err := db.Verify(ctx, c.Command)
	if err != nil {
		return err
	}

	if c.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(d); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(out, "%s (reference driver %s)\n", d, d.Driver)
	}

	if !d.Match {
		return fmt.Errorf("answer differs from reference engine at row %d", d.FirstDiff)
	}
	return nil
}

// ServeCmd starts the WebSocket query server.
type ServeCmd struct {
	Database       string   `arg:"" help:"Path to the database file" type:"existingfile"`
	Addr           string   `help:"Listen address" default:":8080" env:"SQLITESCAN_ADDR"`
	AllowedOrigins []string `name:"allowed-origin" help:"Allowed WebSocket origin (repeatable; supports *.example.com)"`
	MaxMessageSize int64    `help:"Largest accepted command message in bytes" default:"4096"`
	MaxMessageRate int      `help:"Commands per second per session (0 = unlimited)" default:"10"`
	MaxRows        int      `help:"Rows returned per select before truncating (0 = unlimited)" default:"10000"`
	APIKey         string   `name:"api-key" help:"Require this API key (X-API-Key header or api_key parameter)" env:"SQLITESCAN_API_KEY"`
}

// config converts the flags to a server configuration.
func (c *ServeCmd) config() api.Config {
	cfg := api.DefaultConfig()
	cfg.Addr = c.Addr
	cfg.AllowedOrigins = c.AllowedOrigins
	cfg.MaxMessageSize = c.MaxMessageSize
	cfg.MaxMessageRate = c.MaxMessageRate
	cfg.MaxRows = c.MaxRows
	if c.APIKey != "" {
		cfg.Auth = api.AuthConfig{Enabled: true, APIKey: c.APIKey}
	}
	return cfg
}

func (c *ServeCmd) Run(g *Globals) error {
	db, err := g.open(c.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	srv, err := api.NewServer(c.config(), db)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.ListenAndServe(ctx)
}

type VersionCmd struct{}

func (c *VersionCmd) Run(out io.Writer) error {
	fmt.Fprintf(out, "sqlitescan version %s\n", version)
	return nil
}

// newParser builds the kong parser; options let tests replace exit and output.
func newParser(cli *CLI, options ...kong.Option) (*kong.Kong, error) {
	options = append([]kong.Option{
		kong.Name("sqlitescan"),
		kong.Description("Read-only SQLite file reader"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Bind(&cli.Globals),
		kong.BindTo(io.Writer(os.Stdout), (*io.Writer)(nil)),
	}, options...)
	return kong.New(cli, options...)
}

func main() {
	var cli CLI
	parser, err := newParser(&cli)
	if err != nil {
		panic(err)
	}
	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	logging.InitLogger(logging.ParseLevel(cli.LogLevel), logging.ParseFormat(cli.LogFormat))

	err = ctx.Run()
	ctx.FatalIfErrorf(err)
}
