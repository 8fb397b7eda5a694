// Command saf validates, formats, merges and stores SAF documents.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"

	"github.com/reoring/saf"
	"github.com/reoring/saf/i18n"
	"github.com/reoring/saf/internal/config"
	"github.com/reoring/saf/internal/logging"
	"github.com/reoring/saf/storage/filesystem"
)

const version = "0.1.0"

// Globals are flags shared by every command. Empty values fall back to the
// config file.
type Globals struct {
	Config        string   `help:"Config file (default: user config dir)" type:"path" env:"SAF_CONFIG"`
	LogLevel      string   `name:"log-level" help:"debug, info, warn or error" env:"SAF_LOG_LEVEL"`
	LogFormat     string   `name:"log-format" help:"text or json" env:"SAF_LOG_FORMAT"`
	Lang          string   `help:"Language of issue messages (en, ja)" env:"SAF_LANG"`
	Driver        string   `help:"JSON driver: go-json or encoding/json"`
	DuplicateKeys string   `name:"duplicate-keys" help:"Duplicate JSON keys: ignore, warn or error"`
	Schema        []string `help:"Extra layer schema YAML files" type:"existingfile"`
}

// CLI defines the command-line interface for saf.
var CLI struct {
	Globals

	Validate ValidateCmd `cmd:"" help:"Validate documents and report issues"`
	Fmt      FmtCmd      `cmd:"" help:"Re-encode a document with stable formatting"`
	Merge    MergeCmd    `cmd:"" help:"Add a layer or a document to a base document"`
	Sentence SentenceCmd `cmd:"" help:"Show the tokens and dependency triples of a sentence"`
	Lexicon  LexiconCmd  `cmd:"" help:"Annotate tokens with lexical classes"`
	Stats    StatsCmd    `cmd:"" help:"Count layer units without loading documents"`
	Store    StoreGroup  `cmd:"" help:"Document storage operations"`
	Version  VersionCmd  `cmd:"" help:"Print version information"`
}

// app carries resolved settings into command Run methods.
type app struct {
	cfg *config.Config
	opt saf.ParseOpt
	out io.Writer
}

func newApp(g *Globals) (*app, error) {
	path := g.Config
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	override(&cfg.Log.Level, g.LogLevel)
	override(&cfg.Log.Format, g.LogFormat)
	override(&cfg.Language, g.Lang)
	override(&cfg.Parse.Driver, g.Driver)
	override(&cfg.Parse.DuplicateKeys, g.DuplicateKeys)
	cfg.Schemas = append(cfg.Schemas, g.Schema...)
	if err := cfg.Check(); err != nil {
		return nil, err
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	logging.InitLogger(os.Stderr, level, format)
	if cfg.Language != "" {
		i18n.SetLanguage(cfg.Language)
	}
	saf.SetJSONDriver(cfg.JSONDriver())

	opt, err := cfg.ParseOpt()
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, opt: opt, out: os.Stdout}, nil
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// readDoc parses a file and logs its issue counts. Only hard parse failures
// are returned as errors.
func (a *app) readDoc(ctx context.Context, path string) (*saf.Document, saf.Issues, error) {
	ctx = logging.WithDocument(ctx, path)
	doc, iss, err := filesystem.ReadFile(ctx, path, a.opt)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	logging.DocumentIssues(ctx, len(iss.Errors()), len(iss.Warnings()))
	return doc, iss, nil
}

// writeDoc writes doc indented to path, or to stdout when path is empty or "-".
func (a *app) writeDoc(doc *saf.Document, path string) error {
	if path == "" || path == "-" {
		_, err := doc.WriteTo(a.out)
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := doc.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}

// VersionCmd prints the version.
type VersionCmd struct{}

func (c *VersionCmd) Run(a *app) error {
	fmt.Fprintf(a.out, "saf version %s (format %s %s)\n", version, saf.FormatName, saf.FormatVersion)
	return nil
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name("saf"),
		kong.Description("SAF - layered NLP annotation documents"),
		kong.UsageOnError(),
		kong.Vars{"version": version},
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	a, err := newApp(&CLI.Globals)
	kctx.FatalIfErrorf(err)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	kctx.BindTo(ctx, (*context.Context)(nil))
	err = kctx.Run(a)
	stop()
	kctx.FatalIfErrorf(err)
}
