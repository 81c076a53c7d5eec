package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/alecthomas/kong"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/mcncl/jsonclassgen/internal/analyzer"
	"github.com/mcncl/jsonclassgen/internal/config"
	"github.com/mcncl/jsonclassgen/internal/errors"
	"github.com/mcncl/jsonclassgen/internal/finalizer"
	"github.com/mcncl/jsonclassgen/internal/formatter"
	"github.com/mcncl/jsonclassgen/internal/generator"
	"github.com/mcncl/jsonclassgen/internal/logging"
	"github.com/mcncl/jsonclassgen/internal/models"
	"github.com/mcncl/jsonclassgen/internal/parser"
)

// CLI defines the command-line interface
var CLI struct {
	Inputs     []string `name:"input" help:"Input JSON file. Repeat for several samples. If not specified, reads from stdin." short:"i" type:"path"`
	Output     string   `help:"Path to the output file. If not specified, writes to stdout." short:"o" type:"path"`
	Config     string   `help:"Path to a YAML config file. Defaults to the nearest .jsonclassgen.yml." short:"c" type:"path"`
	Language   string   `help:"Target language: csharp, go or jsonschema." short:"l"`
	MainClass  string   `help:"Name of the root class." short:"m"`
	Namespace  string   `help:"C# namespace for generated classes." short:"n"`
	Package    string   `help:"Go package name for generated code." short:"p"`
	FileHeader string   `help:"Text placed in a comment at the top of the output."`

	AttributeLibrary      string `help:"C# serializer attributes: newtonsoft or system_text_json."`
	AlwaysAttributes      bool   `help:"Write a property name attribute on every C# member." negatable:""`
	ObfuscationAttributes bool   `help:"Exclude generated C# classes from obfuscator renaming." negatable:""`

	Properties              bool `help:"Use properties (C#) or getter methods (Go) instead of plain fields." negatable:""`
	PascalCase              bool `help:"Convert member names to PascalCase." negatable:""`
	Nested                  bool `help:"Nest non-root classes inside the main class." negatable:""`
	Lists                   bool `help:"Use List<T> instead of arrays (C#)." negatable:""`
	ExplicitDeserialization bool `help:"Omit serializer attributes, tags and usage hints." negatable:""`
	Internal                bool `help:"Use internal (C#) or unexported (Go) visibility." negatable:""`
	Immutable               bool `help:"Generate read-only members with a constructor." negatable:""`
	Examples                bool `help:"Document sample values on each member." negatable:""`
	DetectDates             bool `help:"Infer date-time values from date-like strings." negatable:""`
	Batch                   bool `help:"Accept several concatenated JSON documents per input." negatable:""`
	Separate                bool `help:"Give every input file its own root class." negatable:""`
	Format                  bool `help:"Run gofmt over generated Go code." short:"f" negatable:""`

	LogLevel    string `help:"Log level: debug, info, warn or error."`
	LogFile     string `help:"Write logs to a rotating file instead of stderr." type:"path"`
	Version     bool   `help:"Show version information." short:"v"`
	Interactive bool   `help:"Run in interactive mode, allowing direct JSON input with Ctrl+D to process." short:"I"`
}

// Context holds the runtime context
type Context struct {
	Config      *config.Config
	Inputs      []string
	Output      string
	Interactive bool

	Stdin io.Reader
	// StdinIsTerminal is set when Stdin is an interactive terminal rather
	// than a pipe or file.
	StdinIsTerminal bool
	Stdout          io.Writer
	Stderr          io.Writer
}

// Version information
const (
	Version = "0.1.0"
)

// printer formats the summary line with grouped digits.
var printer = message.NewPrinter(language.English)

func main() {
	// Parse CLI arguments with Kong
	parser := kong.Must(&CLI,
		kong.Name("jsonclassgen"),
		kong.Description("Infer model classes from JSON samples and write them as C#, Go or JSON Schema"),
		kong.UsageOnError(),
	)

	// Check if no arguments provided and set interactive mode by default
	if len(os.Args) == 1 {
		CLI.Interactive = true
	}

	kctx, err := parser.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	if CLI.Version {
		fmt.Printf("jsonclassgen version %s\n", Version)
		return
	}

	cfg, err := loadConfig(setFlags(kctx))
	if err != nil {
		exitWithError(err)
	}

	cleanup, err := logging.Setup(cfg.Log)
	if err != nil {
		exitWithError(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err = run(ctx, &Context{
		Config:          cfg,
		Inputs:          CLI.Inputs,
		Output:          CLI.Output,
		Interactive:     CLI.Interactive,
		Stdin:           os.Stdin,
		StdinIsTerminal: isTerminal(os.Stdin),
		Stdout:          os.Stdout,
		Stderr:          os.Stderr,
	})
	stop()
	if cerr := cleanup(); cerr != nil {
		fmt.Fprintf(os.Stderr, "failed to close log file: %v\n", cerr)
	}
	if err != nil {
		exitWithError(err)
	}
}

func exitWithError(err error) {
	// Use our custom error handling to provide user-friendly error messages
	fmt.Fprintf(os.Stderr, "%s\n", errors.UserFriendlyError(err))
	fmt.Fprintf(os.Stderr, "\nFor help, run: jsonclassgen --help\n")
	os.Exit(1)
}

// setFlags reports which flags were given on the command line, so that
// unset flags leave config file values alone.
func setFlags(kctx *kong.Context) map[string]bool {
	set := make(map[string]bool)
	for _, flag := range kctx.Flags() {
		if flag.Set {
			set[flag.Name] = true
		}
	}
	return set
}

// loadConfig reads the config file named by --config, or the nearest one
// found upwards from the working directory, and applies command-line flags.
func loadConfig(set map[string]bool) (*config.Config, error) {
	path := CLI.Config
	if path == "" {
		path = config.FindConfigFile()
	}
	if path != "" {
		slog.Debug("using config file", "path", path)
	}
	return config.LoadConfigWithCLI(path, overrides(set))
}

// overrides converts parsed flags into config overrides. Boolean flags only
// override when they appear in set.
func overrides(set map[string]bool) config.Overrides {
	flag := func(name string, v bool) *bool {
		if !set[name] {
			return nil
		}
		return &v
	}

	return config.Overrides{
		Language:   CLI.Language,
		MainClass:  CLI.MainClass,
		Namespace:  CLI.Namespace,
		Package:    CLI.Package,
		FileHeader: CLI.FileHeader,
		LogLevel:   CLI.LogLevel,
		LogFile:    CLI.LogFile,

		AttributeLibrary:      CLI.AttributeLibrary,
		AlwaysAttributes:      flag("always-attributes", CLI.AlwaysAttributes),
		ObfuscationAttributes: flag("obfuscation-attributes", CLI.ObfuscationAttributes),

		UseProperties:           flag("properties", CLI.Properties),
		UsePascalCase:           flag("pascal-case", CLI.PascalCase),
		UseNestedClasses:        flag("nested", CLI.Nested),
		ArraysAsLists:           flag("lists", CLI.Lists),
		ExplicitDeserialization: flag("explicit-deserialization", CLI.ExplicitDeserialization),
		InternalVisibility:      flag("internal", CLI.Internal),
		ImmutableClasses:        flag("immutable", CLI.Immutable),
		ExamplesInDocumentation: flag("examples", CLI.Examples),
		DetectDates:             flag("detect-dates", CLI.DetectDates),
		Batch:                   flag("batch", CLI.Batch),
		Separate:                flag("separate", CLI.Separate),
		Format:                  flag("format", CLI.Format),
	}
}

// run executes the main program logic
func run(ctx context.Context, rc *Context) error {
	cfg := rc.Config
	if cfg == nil {
		cfg = config.NewConfig()
	}

	// 1. Parse JSON input
	ir, err := parseInput(ctx, rc, cfg)
	if err != nil {
		return err
	}

	// 2. Infer the type graph
	separate := cfg.Input.Separate && len(rc.Inputs) > 0
	samples := analyzer.DocumentSamples(ir, cfg.MainClass, separate)
	graph, err := analyzer.NewAnalyzerWithConfig(cfg).Infer(ctx, samples)
	if err != nil {
		return err
	}

	// 3. Dedup and name shapes
	final, err := finalizer.Finalize(graph, finalizer.Options{
		MainClass:             cfg.MainClass,
		PrefixParentNames:     cfg.Naming.PrefixParentNames,
		SingularizeArrayNames: cfg.Naming.SingularizeArrayNames,
		MaxExamples:           cfg.Output.MaxExamples,
	})
	if err != nil {
		return err
	}

	// 4. Render the target language
	writer, err := generator.NewWriter(cfg.Language)
	if err != nil {
		return err
	}
	code, err := writer.Write(final, generator.OptionsFromConfig(cfg))
	if err != nil {
		return err
	}

	// 5. Format the code if requested
	if cfg.Language == config.LanguageGo && cfg.Output.Format {
		code, err = formatter.NewFormatter().Format(code)
		if err != nil {
			return err
		}
	}

	slog.Info("generated code", "language", writer.Name(), "classes", len(final.Shapes), "roots", len(final.Roots))

	// 6. Output the result
	return writeOutput(rc, code, len(final.Shapes))
}

// parseInput reads JSON from the input files, stdin or an interactive paste.
func parseInput(ctx context.Context, rc *Context, cfg *config.Config) (models.IntermediateRepresentation, error) {
	opts := parser.Options{AllowMultiple: cfg.Input.Batch}

	if len(rc.Inputs) > 0 {
		return parser.ParseFiles(ctx, rc.Inputs, opts)
	}

	opts.Source = "<stdin>"
	if rc.Stdin == nil {
		return models.IntermediateRepresentation{}, errors.NewInputError("no input provided", errors.ErrNoInput)
	}

	if rc.StdinIsTerminal {
		if rc.Interactive {
			return readInteractiveInput(rc, opts)
		}
		// No data provided on stdin and not in interactive mode
		return models.IntermediateRepresentation{}, errors.NewInputError("no input provided", errors.ErrNoInput)
	}

	jsonData, err := io.ReadAll(rc.Stdin)
	if err != nil {
		return models.IntermediateRepresentation{}, errors.NewInputError("failed to read from stdin", err)
	}
	if len(strings.TrimSpace(string(jsonData))) == 0 {
		return models.IntermediateRepresentation{}, errors.NewInputError("empty input received from stdin", errors.ErrEmptyInput)
	}

	return parser.ParseStringWithOptions(string(jsonData), opts)
}

// writeOutput writes code to the output file or stdout
func writeOutput(rc *Context, code string, classes int) error {
	if rc.Output != "" {
		if err := os.WriteFile(rc.Output, []byte(code), 0644); err != nil {
			return errors.NewOutputError(fmt.Sprintf("failed to write to file '%s'", rc.Output), err)
		}
		if rc.Stderr != nil {
			printer.Fprintf(rc.Stderr, "Wrote %d classes (%d bytes) to %s\n", classes, len(code), rc.Output)
		}
		return nil
	}

	if _, err := io.WriteString(rc.Stdout, code); err != nil {
		return errors.NewOutputError("failed to write to stdout", err)
	}
	return nil
}

// readInteractiveInput provides an interactive mode for users to paste JSON
// and signal completion with Ctrl+D (EOF)
func readInteractiveInput(rc *Context, opts parser.Options) (models.IntermediateRepresentation, error) {
	fmt.Fprintln(rc.Stderr, "jsonclassgen interactive mode")
	fmt.Fprintln(rc.Stderr, "Paste your JSON below and press Ctrl+D (or Ctrl+Z on Windows) when done:")

	reader := bufio.NewReader(rc.Stdin)
	var jsonBuilder strings.Builder

	for {
		line, err := reader.ReadString('\n')
		jsonBuilder.WriteString(line)
		if err == io.EOF {
			break
		}
		if err != nil {
			return models.IntermediateRepresentation{}, errors.NewInputError("error reading input", err)
		}
	}

	jsonData := jsonBuilder.String()
	if strings.TrimSpace(jsonData) == "" {
		return models.IntermediateRepresentation{}, errors.NewInputError("empty input received", errors.ErrEmptyInput)
	}

	fmt.Fprintln(rc.Stderr, "\nProcessing JSON...")
	return parser.ParseStringWithOptions(jsonData, opts)
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
