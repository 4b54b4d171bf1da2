package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dd0wney/cluso-cellml/pkg/cellml"
	"github.com/dd0wney/cluso-cellml/pkg/config"
	"github.com/dd0wney/cluso-cellml/pkg/convert"
	"github.com/dd0wney/cluso-cellml/pkg/diagnostics"
	"github.com/dd0wney/cluso-cellml/pkg/logging"
	"github.com/dd0wney/cluso-cellml/pkg/metrics"
	"github.com/dd0wney/cluso-cellml/pkg/native"
	"github.com/dd0wney/cluso-cellml/pkg/parser"
	"github.com/dd0wney/cluso-cellml/pkg/writer"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: cellml [flags] <command>

Commands:
  validate   Parse and validate a CellML document
  canon      Parse a document and rewrite it in canonical form
  tonative   Convert a document to the flat native representation

Flags:
`)
	flag.PrintDefaults()
}

func main() {
	var (
		configFile = flag.String("config", "", "YAML configuration file")
		inFile     = flag.String("in", "", "Input document (default stdin)")
		outFile    = flag.String("out", "", "Output file (default stdout)")
		logLevel   = flag.String("log-level", "", "Override configured log level")
		strict     = flag.Bool("strict", false, "Treat parse warnings as errors")
	)
	flag.Usage = usage
	flag.Parse()

	cfg := config.Default()
	if *configFile != "" {
		loaded, err := config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "cellml: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *strict {
		cfg.Strict = true
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "cellml: %v\n", err)
			os.Exit(1)
		}
	}

	logger := logging.NewJSONLogger(os.Stderr, logging.ParseLevel(cfg.LogLevel))
	logging.SetDefaultLogger(logger)

	a := &app{
		cfg:      cfg,
		logger:   logger,
		recorder: diagnostics.NewRecorder(cfg.DiagnosticsBuffer),
	}
	if cfg.Metrics {
		a.metrics = metrics.DefaultRegistry()
	}

	if flag.NArg() != 1 {
		usage()
		os.Exit(2)
	}

	var err error
	switch flag.Arg(0) {
	case "validate":
		err = a.validate(*inFile)
	case "canon":
		err = a.canon(*inFile, *outFile)
	case "tonative":
		err = a.toNative(*inFile, *outFile)
	default:
		fmt.Fprintf(os.Stderr, "cellml: unknown command %q\n", flag.Arg(0))
		usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Error("command failed",
			logging.Operation(flag.Arg(0)),
			logging.Error(err))
		os.Exit(1)
	}
}

// app bundles the wired runtime pieces behind the CLI commands.
type app struct {
	cfg      *config.Config
	logger   logging.Logger
	recorder *diagnostics.Recorder
	metrics  *metrics.Registry
}

func sourceName(path string) string {
	if path == "" {
		return "stdin"
	}
	return path
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "" {
		return os.Stdin, nil
	}
	return os.Open(path)
}

func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return os.Stdout, nil
	}
	return os.Create(path)
}

// parse reads and parses one document, recording the outcome. In strict mode
// any warning fails the parse.
func (a *app) parse(inFile string) (*cellml.Model, error) {
	source := sourceName(inFile)
	in, err := openInput(inFile)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	start := time.Now()
	model, warnings, err := parser.Parse(in)
	elapsed := time.Since(start)

	if err != nil {
		a.recordParse("failure", elapsed, nil, 0)
		a.recorder.Failure(diagnostics.ActionParse, "", source, err)
		return nil, err
	}

	for _, w := range warnings {
		a.logger.Warn("parse warning",
			logging.ModelName(model.Name()),
			logging.String("code", w.Code),
			logging.String("entity", w.Entity),
			logging.String("detail", w.Message))
	}
	if a.cfg.Strict && len(warnings) > 0 {
		err := fmt.Errorf("strict mode: %d warning(s), first: %s", len(warnings), warnings[0])
		a.recordParse("failure", elapsed, nil, 0)
		a.recorder.Failure(diagnostics.ActionParse, model.Name(), source, err)
		return nil, err
	}

	a.recordParse("success", elapsed, model, len(warnings))
	a.recorder.Success(diagnostics.ActionParse, model.Name(), source, len(warnings))
	a.logger.Info("parsed document",
		logging.ModelName(model.Name()),
		logging.Path(source),
		logging.Count(len(model.Components())),
		logging.Warnings(len(warnings)),
		logging.Latency(elapsed))
	return model, nil
}

func (a *app) recordParse(status string, elapsed time.Duration, model *cellml.Model, warnings int) {
	if a.metrics == nil {
		return
	}
	components, variables := 0, 0
	if model != nil {
		components = len(model.Components())
		variables = len(model.Variables())
	}
	a.metrics.RecordParse(status, elapsed, components, variables, warnings)
}

func (a *app) validate(inFile string) error {
	model, err := a.parse(inFile)
	if err != nil {
		return err
	}
	fmt.Printf("%s: valid (%d components, %d variables)\n",
		model.Name(), len(model.Components()), len(model.Variables()))
	return nil
}

func (a *app) canon(inFile, outFile string) error {
	model, err := a.parse(inFile)
	if err != nil {
		return err
	}

	out, err := openOutput(outFile)
	if err != nil {
		return err
	}
	defer out.Close()

	if err := writer.Write(out, model); err != nil {
		if a.metrics != nil {
			a.metrics.RecordWrite("failure")
		}
		a.recorder.Failure(diagnostics.ActionWrite, model.Name(), sourceName(outFile), err)
		return err
	}
	if a.metrics != nil {
		a.metrics.RecordWrite("success")
	}
	a.recorder.Success(diagnostics.ActionWrite, model.Name(), sourceName(outFile), 0)
	return nil
}

func (a *app) toNative(inFile, outFile string) error {
	model, err := a.parse(inFile)
	if err != nil {
		return err
	}

	start := time.Now()
	n, err := convert.ToNative(model)
	elapsed := time.Since(start)
	if err != nil {
		if a.metrics != nil {
			a.metrics.RecordConversion("to_native", "failure", elapsed, 0)
		}
		a.recorder.Failure(diagnostics.ActionToNative, model.Name(), sourceName(inFile), err)
		return err
	}
	if a.metrics != nil {
		a.metrics.RecordConversion("to_native", "success", elapsed, len(n.Variables()))
	}
	a.recorder.Success(diagnostics.ActionToNative, model.Name(), sourceName(inFile), 0)
	a.logger.Info("converted to native form",
		logging.ModelName(model.Name()),
		logging.Count(len(n.Variables())),
		logging.Latency(elapsed))

	out, err := openOutput(outFile)
	if err != nil {
		return err
	}
	defer out.Close()
	return printNative(out, n)
}

// printNative writes a readable flat listing of the native model.
func printNative(w io.Writer, n *native.Model) error {
	if _, err := fmt.Fprintf(w, "model %s\n", n.Name()); err != nil {
		return err
	}
	if t := n.Time(); t != nil {
		fmt.Fprintf(w, "time %s\n", t.QualifiedName())
	}
	for _, c := range n.Components() {
		fmt.Fprintf(w, "component %s\n", c.Name())
		for _, v := range c.Variables() {
			printNativeVariable(w, v)
		}
	}
	return nil
}

func printNativeVariable(w io.Writer, v *native.Variable) {
	fmt.Fprintf(w, "  var %s", v.QualifiedName())
	if u, ok := v.Unit(); ok {
		fmt.Fprintf(w, " [%s]", u.String())
	}
	if v.IsState() {
		fmt.Fprint(w, " state")
	}
	if init, ok := v.Initial(); ok {
		fmt.Fprintf(w, " init=%g", init)
	}
	if rhs, ok := v.Equation(); ok {
		if v.IsState() {
			fmt.Fprintf(w, " d/dt=%s", rhs.String())
		} else {
			fmt.Fprintf(w, " =%s", rhs.String())
		}
	}
	fmt.Fprintln(w)
	for _, sub := range v.Subs() {
		printNativeVariable(w, sub)
	}
}
