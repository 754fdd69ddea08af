// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/autodoc/autodoc/internal/config"
	"github.com/autodoc/autodoc/internal/discovery"
	"github.com/autodoc/autodoc/internal/enhance"
	"github.com/autodoc/autodoc/internal/extractor"
	"github.com/autodoc/autodoc/internal/issue"
	"github.com/autodoc/autodoc/internal/pipeline"
)

type (
	// App wires CLI services and shared dependencies. Every command handler
	// receives the App and reaches configuration, enhancement and output
	// through it.
	App struct {
		Config    ConfigProvider
		Enhancers EnhancerFactory
		LookupEnv func(string) (string, bool)

		configDir  string
		guideStyle string
		stdout     io.Writer
		stderr     io.Writer
		flags      globalFlags
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config    ConfigProvider
		Enhancers EnhancerFactory
		LookupEnv func(string) (string, bool)
		// ConfigDir overrides the user config directory ("" = platform default).
		ConfigDir string
		// GuideStyle is the glamour style for issue guides ("" = auto).
		GuideStyle string
		Stdout     io.Writer
		Stderr     io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// EnhancerFactory builds the text generation backend.
	EnhancerFactory func(ctx context.Context, provider enhance.Provider, model string, lookup func(string) (string, bool)) (enhance.Enhancer, error)

	globalFlags struct {
		configPath string
		logLevel   string
		verbose    bool
	}

	// scanFlags are the discovery overrides shared by every command that
	// scans a repository.
	scanFlags struct {
		maxFiles   int
		maxBytes   int64
		ignore     []string
		extractors []string
	}

	// enhanceFlags override the enhance section of the config for one run.
	enhanceFlags struct {
		enabled  bool
		provider string
		model    string
	}

	// ExitError carries the process exit code out of a RunE handler so the
	// handler never calls os.Exit itself.
	ExitError struct {
		Code int
		Err  error
	}
)

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) (*App, error) {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Enhancers == nil {
		deps.Enhancers = enhance.New
	}
	if deps.LookupEnv == nil {
		deps.LookupEnv = os.LookupEnv
	}
	if deps.GuideStyle == "" {
		deps.GuideStyle = "auto"
	}

	return &App{
		Config:     deps.Config,
		Enhancers:  deps.Enhancers,
		LookupEnv:  deps.LookupEnv,
		configDir:  deps.ConfigDir,
		guideStyle: deps.GuideStyle,
		stdout:     deps.Stdout,
		stderr:     deps.Stderr,
	}, nil
}

func (a *App) loadOptions() config.LoadOptions {
	return config.LoadOptions{
		ConfigFilePath: a.flags.configPath,
		ConfigDirPath:  a.configDir,
	}
}

// loadConfig loads the configuration and applies the global flag overrides.
func (a *App) loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := a.Config.Load(ctx, a.loadOptions())
	if err != nil {
		return nil, err
	}
	if a.flags.logLevel != "" {
		level := config.LogLevel(strings.ToLower(a.flags.logLevel))
		if valid, errs := level.IsValid(); !valid {
			return nil, errors.Join(errs...)
		}
		cfg.LogLevel = level
	}
	if a.flags.verbose {
		cfg.LogLevel = config.LogLevelDebug
	}
	return cfg, nil
}

// logger builds the stderr logger for one command.
func (a *App) logger(cfg *config.Config) *log.Logger {
	level, err := log.ParseLevel(cfg.LogLevel.String())
	if err != nil {
		level = log.InfoLevel
	}
	return log.NewWithOptions(a.stderr, log.Options{
		Prefix: "autodoc",
		Level:  level,
	})
}

func (f *scanFlags) bind(flags *pflag.FlagSet) {
	flags.IntVar(&f.maxFiles, "max-files", 0, "file budget, overriding the config (0 or -1 = unlimited)")
	flags.Int64Var(&f.maxBytes, "max-bytes", 0, "byte budget (0 = config or unlimited)")
	flags.StringSliceVar(&f.ignore, "ignore", nil, "extra gitignore-style pattern to exclude (repeatable)")
	flags.StringSliceVar(&f.extractors, "extractors", nil, "preferred extractor order, comma separated")
}

// apply overlays the flags the user set on cfg.
func (f *scanFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("max-files") {
		cfg.MaxFiles = f.maxFiles
	}
	if cmd.Flags().Changed("max-bytes") {
		cfg.MaxBytes = f.maxBytes
	}
	cfg.Ignore = append(cfg.Ignore, f.ignore...)
	if len(f.extractors) > 0 {
		cfg.Extractors = f.extractors
	}
}

func (f *enhanceFlags) bind(flags *pflag.FlagSet) {
	flags.BoolVar(&f.enabled, "enhance", false, "generate weak fields with a language model")
	flags.StringVar(&f.provider, "provider", "", "enhancement provider: anthropic or gemini")
	flags.StringVar(&f.model, "model", "", "override the provider's default model")
}

// apply overlays the flags the user set on cfg.
func (f *enhanceFlags) apply(cfg *config.Config) {
	if f.enabled {
		cfg.Enhance.Enabled = true
	}
	if f.provider != "" {
		cfg.Enhance.Provider = config.EnhanceProvider(strings.ToLower(f.provider))
	}
	if f.model != "" {
		cfg.Enhance.Model = f.model
	}
}

// pipelineOptions converts the effective configuration into pipeline options.
// A provider that cannot be built is passed on as Unavailable so the run
// still completes.
func (a *App) pipelineOptions(ctx context.Context, cfg *config.Config, logger *log.Logger) (pipeline.Options, error) {
	opts := pipeline.Options{
		Discovery: discovery.Options{
			IgnorePatterns: cfg.Ignore,
			MaxFiles:       cfg.MaxFiles,
			MaxBytes:       cfg.MaxBytes,
		},
		Extractors: cfg.Extractors,
		Logger:     logger,
	}
	if !cfg.Enhance.Enabled {
		return opts, nil
	}

	if valid, errs := cfg.Enhance.IsValid(); !valid {
		return opts, issue.NewErrorContext().
			WithOperation("configure enhancement").
			WithSuggestion("Valid providers are anthropic and gemini").
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(errors.Join(errs...)).
			BuildError()
	}
	floor, err := cfg.Enhance.FloorConfidence()
	if err != nil {
		return opts, err
	}
	opts.Enhance.Fields = cfg.Enhance.FieldNames()
	opts.Enhance.Floor = floor

	e, err := a.Enhancers(ctx, enhance.Provider(cfg.Enhance.Provider), cfg.Enhance.Model, a.LookupEnv)
	if err != nil {
		opts.Enhance.Unavailable = err
		return opts, nil
	}
	logger.Debug("enhancement enabled", "provider", e.Name(), "fields", cfg.Enhance.Fields)
	opts.Enhance.Enhancer = e
	return opts, nil
}

// scan runs the pipeline on the repository at root with the command's flags.
func (a *App) scan(cmd *cobra.Command, root string, sf *scanFlags, ef *enhanceFlags) (*pipeline.Result, *config.Config, error) {
	ctx := cmd.Context()
	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return nil, nil, err
	}
	if sf != nil {
		sf.apply(cmd, cfg)
	}
	if ef != nil {
		ef.apply(cfg)
	}
	logger := a.logger(cfg)

	opts, err := a.pipelineOptions(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	res, err := pipeline.Run(ctx, root, opts)
	if err != nil {
		return nil, nil, scanError(root, err)
	}
	return res, cfg, nil
}

// scanError turns a fatal pipeline error into an actionable one.
func scanError(root string, err error) error {
	ctx := issue.NewErrorContext().WithOperation("scan repository").WithResource(root).Wrap(err)
	switch {
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, discovery.ErrNotDirectory):
		ctx.WithSuggestion("Check the path for typos").
			WithSuggestion("Pass the repository directory, not a file inside it").
			WithIssue(issue.RepositoryNotFoundId)
	case errors.Is(err, discovery.ErrAccess):
		ctx.WithSuggestion("Check the directory permissions").
			WithIssue(issue.RepositoryNotReadableId)
	case errors.Is(err, extractor.ErrUnknownExtractor), errors.Is(err, extractor.ErrDuplicateExtractor):
		ctx.WithSuggestion(fmt.Sprintf("Valid extractors: %s", strings.Join(extractor.BuiltinNames(), ", "))).
			WithIssue(issue.InvalidExtractorOrderId)
	}
	return ctx.BuildError()
}

// fail prints err for the user and returns the ExitError that ends the command.
// Linked issue guides are rendered in verbose mode.
func (a *App) fail(cmd *cobra.Command, err error) error {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	fmt.Fprintln(a.stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, a.flags.verbose))
	if guide := issue.GuideFor(err); guide != nil && a.flags.verbose {
		a.renderGuide(guide)
	}
	return &ExitError{Code: 1, Err: err}
}

func (a *App) renderGuide(guide *issue.Issue) {
	rendered, err := guide.Render(a.guideStyle)
	if err != nil {
		rendered = guide.Markdown()
	}
	fmt.Fprintln(a.stderr, rendered)
}

// printDiagnostics writes run diagnostics to stderr. Info diagnostics are
// only listed in verbose mode.
func (a *App) printDiagnostics(diags []discovery.Diagnostic) {
	shown := make([]discovery.Diagnostic, 0, len(diags))
	for _, d := range diags {
		if d.Severity != discovery.SeverityInfo || a.flags.verbose {
			shown = append(shown, d)
		}
	}
	if len(shown) == 0 {
		return
	}

	fmt.Fprintf(a.stderr, "%s %d diagnostic(s):\n", WarningStyle.Render("!"), len(shown))
	guides := map[issue.Id]bool{}
	for i, d := range shown {
		codeTag := diagnosticCodeStyle.Render(fmt.Sprintf("[%s]", d.Code))
		where := d.Component
		if d.Path != "" {
			where = CmdStyle.Render(d.Path)
		}
		fmt.Fprintf(a.stderr, "  %d. %s %s %s\n", i+1, codeTag, where, d.Message)
		if id := diagnosticGuide(d); id != 0 {
			guides[id] = true
		}
	}
	if !a.flags.verbose {
		return
	}
	for _, id := range []issue.Id{issue.BudgetExceededId, issue.EnhancerUnavailableId, issue.EnhancerFailedId} {
		if guides[id] {
			a.renderGuide(issue.Get(id))
		}
	}
}

func diagnosticGuide(d discovery.Diagnostic) issue.Id {
	switch d.Code {
	case discovery.CodeBudgetExceeded:
		return issue.BudgetExceededId
	case discovery.CodeEnhancerFailed:
		if errors.Is(d.Cause, enhance.ErrNoAPIKey) {
			return issue.EnhancerUnavailableId
		}
		return issue.EnhancerFailedId
	default:
		return 0
	}
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// rootArg returns the repository path argument, defaulting to ".".
func rootArg(args []string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	return "."
}
