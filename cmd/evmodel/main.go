// Command evmodel is the CLI driver for the Event Model diagram compiler:
// parse, lint, format, and render a declarative Event Model document.
// Adapted from the teacher's cmd/emlang driver: same -c/--config
// extraction, same stdin ("-") support, same exit-code conventions. The
// teacher's repl/serve subcommands and their --serve live-reload flags
// are dropped (spec.md scopes watch-mode file monitoring and HTTP
// serving out as external-collaborator concerns never carried by this
// driver).
package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/eventmodeler/eventmodeler/internal/config"
	"github.com/eventmodeler/eventmodeler/internal/formatter"
	"github.com/eventmodeler/eventmodeler/internal/instantiate"
	"github.com/eventmodeler/eventmodeler/internal/layout"
	"github.com/eventmodeler/eventmodeler/internal/linter"
	"github.com/eventmodeler/eventmodeler/internal/model"
	"github.com/eventmodeler/eventmodeler/internal/parser"
	"github.com/eventmodeler/eventmodeler/internal/pdfwriter"
	"github.com/eventmodeler/eventmodeler/internal/registry"
	"github.com/eventmodeler/eventmodeler/internal/render"
	"github.com/eventmodeler/eventmodeler/internal/router"
	"github.com/eventmodeler/eventmodeler/internal/svgwriter"
	"github.com/spf13/pflag"
)

const version = "1.0.0"
const specVersion = "1.0.0"

func main() {
	args, configPath := extractConfigFlag(os.Args[1:])

	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	command := args[0]

	switch command {
	case "init":
		cmdInit()
		return
	case "version":
		fmt.Printf("evmodel version %s (spec %s)\n", version, specVersion)
		return
	case "help", "-h", "--help":
		printUsage()
		return
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	switch command {
	case "parse":
		cmdParse(args[1:])
	case "lint":
		cmdLint(args[1:], cfg)
	case "fmt":
		cmdFmt(args[1:], cfg)
	case "render":
		cmdRender(args[1:], cfg)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func extractConfigFlag(args []string) (remaining []string, configPath string) {
	for i := 0; i < len(args); i++ {
		if (args[i] == "-c" || args[i] == "--config") && i+1 < len(args) {
			configPath = args[i+1]
			i++
		} else {
			remaining = append(remaining, args[i])
		}
	}
	return
}

func printUsage() {
	fmt.Println("evmodel - Event Model diagram compiler")
	fmt.Println()
	fmt.Println("Usage: evmodel [-c <config>] <command> [arguments]")
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println("  -c, --config <file>  Path to config file (default: .evmodel.yaml, or EVMODEL_CONFIG env)")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  parse <file>         Parse a YAML source file and show structure (use - for stdin)")
	fmt.Println("  lint <file>          Lint a YAML source file for issues (use - for stdin)")
	fmt.Println("  fmt <file>           Format a YAML source file (use - for stdin, -w for in-place)")
	fmt.Println("                       --keys short|long: override key style")
	fmt.Println("  render <file>        Render a diagram (use - for stdin, -o file for output)")
	fmt.Println("                       --format svg|pdf, --theme light|dark")
	fmt.Println("  init                 Create a .evmodel.yaml config file with defaults")
	fmt.Println("  version              Print version information")
	fmt.Println("  help                 Show this help message")
}

const defaultConfig = `# evmodel configuration file

lint:
  # ignore:
  #   - command-without-event
  #   - orphan-view-reference
  #   - slice-missing-event

fmt:
  # keys: long

render:
  # theme: light
  # entity-spacing: 20
  # swimlane-height: 100
  # entity-width: 160
  # entity-height: 80
  # slice-gutter: 10
  # router-margin: 10
  # min-extension: 30
`

func cmdInit() {
	const path = ".evmodel.yaml"
	if _, err := os.Stat(path); err == nil {
		fmt.Fprintf(os.Stderr, "Error: %s already exists\n", path)
		os.Exit(1)
	}
	if err := os.WriteFile(path, []byte(defaultConfig), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", path, err)
		os.Exit(1)
	}
	fmt.Printf("Created %s\n", path)
}

func parseFile(arg string) (*model.SourceDocument, string) {
	var input io.Reader
	var name string

	if arg == "-" {
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
			os.Exit(1)
		}
		input = bytes.NewReader(content)
		name = "<stdin>"
	} else {
		f, err := os.Open(arg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		input = f
		name = arg
	}

	doc, err := parser.Parse(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Parse error in %s: %v\n", name, err)
		os.Exit(1)
	}

	return doc, name
}

func cmdParse(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: evmodel parse <file>")
		os.Exit(1)
	}

	doc, name := parseFile(args[0])

	fmt.Printf("Parsed %s successfully\n", name)
	fmt.Println("----------------------------------------")
	fmt.Printf("Workflow: %s\n", doc.Workflow)
	fmt.Printf("Swimlanes: %d\n", len(doc.Swimlanes))
	for _, sw := range doc.Swimlanes {
		fmt.Printf("  %d: %s (%s)\n", sw.Position, sw.Display, sw.ID)
	}
	fmt.Printf("Events: %d, Commands: %d, Views: %d, Projections: %d, Queries: %d, Automations: %d\n",
		len(doc.EventOrder), len(doc.CommandOrder), len(doc.ViewOrder),
		len(doc.ProjectionOrder), len(doc.QueryOrder), len(doc.AutomationOrder))

	for _, sliceName := range doc.SliceOrder {
		slice := doc.Slices[sliceName]
		fmt.Printf("\nSlice: %s\n", sliceName)
		for _, c := range slice.Connections {
			fmt.Printf("  %s.%s -> %s.%s\n", c.From.Kind, refLabel(c.From), c.To.Kind, refLabel(c.To))
		}
	}
}

func refLabel(ref model.EntityRef) string {
	if ref.ComponentPath != "" {
		return ref.Name + "." + ref.ComponentPath
	}
	return ref.Name
}

func cmdFmt(args []string, cfg *config.Config) {
	flags := pflag.NewFlagSet("fmt", pflag.ExitOnError)
	writeFlag := flags.BoolP("write", "w", false, "write result to source file instead of stdout")
	keysFlag := flags.String("keys", "", "key style: short or long")
	flags.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: evmodel fmt [-w] [--keys short|long] <file>")
		flags.PrintDefaults()
	}
	flags.Parse(args)

	if flags.NArg() < 1 {
		flags.Usage()
		os.Exit(1)
	}

	inputArg := flags.Arg(0)

	if *writeFlag && inputArg == "-" {
		fmt.Fprintln(os.Stderr, "Error: -w cannot be used with stdin")
		os.Exit(1)
	}

	doc, _ := parseFile(inputArg)

	keyStyle := "long"
	if cfg.Fmt.Keys != "" {
		keyStyle = cfg.Fmt.Keys
	}
	if flags.Changed("keys") {
		keyStyle = *keysFlag
	}

	out := formatter.Format(doc, formatter.Options{KeyStyle: keyStyle})

	if *writeFlag {
		if err := os.WriteFile(inputArg, out, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", inputArg, err)
			os.Exit(1)
		}
	} else {
		os.Stdout.Write(out)
	}
}

func cmdLint(args []string, cfg *config.Config) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: evmodel lint <file>")
		os.Exit(1)
	}

	doc, name := parseFile(args[0])

	if _, err := registry.Build(doc); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	lint := linter.New()
	for _, rule := range cfg.Lint.Ignore {
		lint.IgnoreRules[rule] = true
	}
	issues := lint.Lint(doc)

	if len(issues) == 0 {
		fmt.Printf("%s: OK (no issues found)\n", name)
		return
	}

	errorCount := 0
	warningCount := 0
	for _, issue := range issues {
		if issue.Severity == linter.SeverityError {
			errorCount++
		} else {
			warningCount++
		}
	}

	fmt.Printf("%s: %d issue(s) found\n", name, len(issues))
	fmt.Println("----------------------------------------")

	for _, issue := range issues {
		fmt.Printf("%s:%d:%d: %s: %s [%s]\n",
			name, issue.Line, issue.Column, issue.Severity, issue.Message, issue.Rule)
	}

	fmt.Println("----------------------------------------")
	fmt.Printf("Summary: %d error(s), %d warning(s)\n", errorCount, warningCount)

	if errorCount > 0 {
		os.Exit(1)
	}
}

func cmdRender(args []string, cfg *config.Config) {
	flags := pflag.NewFlagSet("render", pflag.ExitOnError)
	outputFile := flags.StringP("output", "o", "", "output file")
	format := flags.String("format", "svg", "output format: svg or pdf")
	theme := flags.String("theme", "", "theme: light or dark")
	flags.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: evmodel render [-o output.svg] [--format svg|pdf] [--theme light|dark] <file>")
		flags.PrintDefaults()
	}
	flags.Parse(args)

	if flags.NArg() < 1 {
		flags.Usage()
		os.Exit(1)
	}

	inputArg := flags.Arg(0)
	doc, _ := parseFile(inputArg)

	reg, err := registry.Build(doc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	graph, err := instantiate.Build(reg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	renderCfg := cfg.Render
	if flags.Changed("theme") {
		renderCfg.ThemeName = *theme
	}

	l, err := layout.Compute(graph, reg, renderCfg.LayoutConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Layout error: %v\n", err)
		os.Exit(1)
	}

	routes := router.RouteAll(l, graph.Connections, renderCfg.RouterConfig())
	doc2 := render.Render(l, graph.Connections, routes, renderCfg.Theme())

	var out []byte
	switch *format {
	case "svg":
		s, err := svgwriter.WriteString(doc2)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Render error: %v\n", err)
			os.Exit(1)
		}
		out = []byte(s)
	case "pdf":
		var buf bytes.Buffer
		if err := pdfwriter.Write(&buf, doc2); err != nil {
			fmt.Fprintf(os.Stderr, "Render error: %v\n", err)
			os.Exit(1)
		}
		out = buf.Bytes()
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown format %q (want svg or pdf)\n", *format)
		os.Exit(1)
	}

	if *outputFile != "" {
		if err := os.WriteFile(*outputFile, out, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
			os.Exit(1)
		}
	} else {
		os.Stdout.Write(out)
	}
}
