// Command scriptorium runs the collaborative USFM editing server and
// offers the merge and diff machinery on the command line.
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/davidrees/scriptorium/core/diff"
	"github.com/davidrees/scriptorium/core/merge"
	"github.com/davidrees/scriptorium/internal/logging"
	"github.com/davidrees/scriptorium/internal/web"
)

const version = "0.1.0"

// CLI defines the command-line interface for scriptorium.
var CLI struct {
	// Global flags
	LogLevel  string `name:"log-level" default:"info" enum:"debug,info,warn,error" help:"Log level"`
	LogFormat string `name:"log-format" default:"json" enum:"json,text" help:"Log output format"`

	Serve   ServeCmd   `cmd:"" help:"Start the editor server"`
	Merge   MergeCmd   `cmd:"" help:"Three-way merge of USFM files"`
	Diff    DiffCmd    `cmd:"" help:"Show the marked-up difference between two files"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// ServeCmd starts the editor server.
type ServeCmd struct {
	Port int    `help:"HTTP server port" default:"8080"`
	DB   string `help:"Path to the database file" default:"./scriptorium.db" type:"path"`
}

func (c *ServeCmd) Run() error {
	server, err := web.NewServer(web.Config{Port: c.Port, DBPath: c.DB})
	if err != nil {
		return err
	}
	defer server.Close()
	return server.Start(c.Port)
}

// MergeCmd merges an edited file and a prioritized file against their
// common ancestor and prints the result.
type MergeCmd struct {
	Base        string `arg:"" help:"The common ancestor file" type:"existingfile"`
	Change      string `arg:"" help:"The changed file" type:"existingfile"`
	Prioritized string `arg:"" help:"The prioritized file, which wins on conflict" type:"existingfile"`
	Clever      bool   `help:"Retry a failed merge verse by verse" default:"true" negatable:""`
}

func (c *MergeCmd) Run() error {
	base, err := os.ReadFile(c.Base)
	if err != nil {
		return err
	}
	change, err := os.ReadFile(c.Change)
	if err != nil {
		return err
	}
	prioritized, err := os.ReadFile(c.Prioritized)
	if err != nil {
		return err
	}

	var conflicts []merge.Conflict
	result := merge.Run(string(base), string(change), string(prioritized), c.Clever, &conflicts)
	fmt.Println(result)

	for _, conflict := range conflicts {
		fmt.Fprintf(os.Stderr, "conflict: %s\n", conflict.Subject)
	}
	if len(conflicts) > 0 {
		return fmt.Errorf("%d conflict(s), the prioritized text won", len(conflicts))
	}
	return nil
}

// DiffCmd prints the word-level difference between two files as HTML
// markup, insertions bold and deletions struck through.
type DiffCmd struct {
	Old string `arg:"" help:"The old file" type:"existingfile"`
	New string `arg:"" help:"The new file" type:"existingfile"`
}

func (c *DiffCmd) Run() error {
	oldText, err := os.ReadFile(c.Old)
	if err != nil {
		return err
	}
	newText, err := os.ReadFile(c.New)
	if err != nil {
		return err
	}
	markup, _, _ := diff.Text(string(oldText), string(newText))
	fmt.Println(markup)
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("scriptorium version %s\n", version)
	return nil
}

func initLogging() {
	level := logging.LevelInfo
	switch CLI.LogLevel {
	case "debug":
		level = logging.LevelDebug
	case "warn":
		level = logging.LevelWarn
	case "error":
		level = logging.LevelError
	}
	format := logging.FormatJSON
	if CLI.LogFormat == "text" {
		format = logging.FormatText
	}
	logging.InitLogger(level, format)
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("scriptorium"),
		kong.Description("Scriptorium - collaborative USFM editing with three-way merge"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	initLogging()
	err := ctx.Run(ctx)
	ctx.FatalIfErrorf(err)
}
