package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/itsatony/go-stache"
)

// renderConfig holds parsed render command configuration
type renderConfig struct {
	templatePath   string
	dataInline     string
	dataFilePath   string
	outputPath     string
	includes       []string
	manifestPath   string
	manifestPrefix string
	storeDriver    string
	dsn            string
	basePath       string
	maxDepth       int
	profile        bool
	strip          bool
}

func newRenderCmd(cli *cliContext) *cobra.Command {
	cfg := &renderConfig{}

	cmd := &cobra.Command{
		Use:     CmdNameRender,
		Short:   RenderShort,
		Example: RenderExample,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd.Context(), cli, cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&cfg.templatePath, FlagTemplate, FlagTemplateShort, "", `template file (use "-" for stdin)`)
	flags.StringVarP(&cfg.dataInline, FlagData, FlagDataShort, "", "JSON or YAML data string")
	flags.StringVarP(&cfg.dataFilePath, FlagDataFile, FlagDataFileShort, "", "JSON or YAML data file")
	flags.StringVarP(&cfg.outputPath, FlagOutput, FlagOutputShort, FlagDefaultOutput, "output file (default: stdout)")
	flags.StringArrayVarP(&cfg.includes, FlagInclude, FlagIncludeShort, nil, "register NAME=PATH for {{template:NAME}} (repeatable)")
	flags.StringVar(&cfg.manifestPath, FlagManifest, "", "manifest of storage keys to register as templates")
	flags.StringVar(&cfg.manifestPrefix, FlagManifestPrefix, "", "prefix joined to every manifest entry")
	flags.StringVar(&cfg.storeDriver, FlagStore, "", "storage driver for stored templates: memory, sqlite, postgres")
	flags.StringVar(&cfg.dsn, FlagDSN, "", "storage connection string")
	flags.StringVar(&cfg.basePath, FlagBasePath, "", "prefix relative href/src values in the output")
	flags.IntVar(&cfg.maxDepth, FlagMaxDepth, stache.DefaultMaxDepth, "maximum nesting depth (0 = unlimited)")
	flags.BoolVar(&cfg.profile, FlagProfile, false, "print per-phase timings to stderr")
	flags.BoolVar(&cfg.strip, FlagStrip, false, "remove tags left unresolved")

	return cmd
}

func runRender(ctx context.Context, cli *cliContext, cfg *renderConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.templatePath == "" {
		return failf(ExitCodeUsageError, ErrMsgMissingTemplate, nil)
	}

	logger, err := cli.logger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	source, err := readInput(cfg.templatePath, cli.stdin)
	if err != nil {
		return failf(ExitCodeInputError, ErrMsgReadFileFailed, err)
	}

	data, err := loadData(cfg.dataInline, cfg.dataFilePath)
	if err != nil {
		return failf(ExitCodeInputError, ErrMsgInvalidData, err)
	}

	timer := stache.NewPhaseTimer()
	opts := []stache.Option{
		stache.WithLogger(logger),
		stache.WithMaxDepth(cfg.maxDepth),
	}
	if cfg.profile {
		opts = append(opts, stache.WithProfiler(timer))
	}

	if cfg.storeDriver != "" {
		storage, err := openStorage(cfg.storeDriver, cfg.dsn)
		if err != nil {
			return err
		}
		defer storage.Close()
		opts = append(opts, stache.WithStorage(storage))
	} else if cfg.manifestPath != "" {
		return failf(ExitCodeUsageError, ErrMsgManifestNoStorage, nil)
	}

	engine, err := stache.New(opts...)
	if err != nil {
		return failf(ExitCodeError, ErrMsgRenderFailed, err)
	}

	if err := registerIncludes(engine, cfg.includes, cli.stdin); err != nil {
		return err
	}

	if cfg.manifestPath != "" {
		manifest, err := readInput(cfg.manifestPath, cli.stdin)
		if err != nil {
			return failf(ExitCodeInputError, ErrMsgReadFileFailed, err)
		}
		names, err := engine.RegisterManifest(cfg.manifestPrefix, manifest)
		if err != nil {
			return failf(ExitCodeInputError, ErrMsgRegisterFailed, err)
		}
		logger.Debug(stache.LogMsgManifestLoaded, zap.Strings(stache.LogFieldTemplateName, names))
	}

	result, err := engine.RenderResult(ctx, string(source), data)
	if err != nil {
		return failf(ExitCodeRenderError, ErrMsgRenderFailed, err)
	}

	out := result.Output
	if cfg.strip {
		out = stache.RemoveEmpties(out)
	}
	if cfg.basePath != "" {
		out = stache.FixPath(out, cfg.basePath)
	}

	if err := writeOutput(cfg.outputPath, []byte(out), cli.stdout); err != nil {
		return failf(ExitCodeError, ErrMsgWriteOutputFailed, err)
	}

	writeDiagnostics(cli.stderr, result.Diagnostics)
	if cfg.profile {
		writeProfile(cli.stderr, timer.Snapshot())
	}
	return nil
}

// registerIncludes reads every NAME=PATH include and registers it inline.
func registerIncludes(engine *stache.Engine, includes []string, stdin io.Reader) error {
	for _, include := range includes {
		name, path, ok := strings.Cut(include, IncludeSeparator)
		if !ok || name == "" || path == "" {
			return failf(ExitCodeUsageError, ErrMsgInvalidInclude, errors.New(include))
		}

		source, err := readInput(path, stdin)
		if err != nil {
			return failf(ExitCodeInputError, ErrMsgReadFileFailed, err)
		}
		if err := engine.RegisterTemplate(name, string(source)); err != nil {
			return failf(ExitCodeUsageError, ErrMsgRegisterFailed, err)
		}
	}
	return nil
}

func writeDiagnostics(w io.Writer, diagnostics []stache.Diagnostic) {
	for _, d := range diagnostics {
		fmt.Fprintf(w, FmtDiagnostic, d.Kind, d.Identifier, d.Index, d.ValueKind)
	}
}

func writeProfile(w io.Writer, stats []stache.PhaseStat) {
	fmt.Fprintf(w, FmtProfileHeader, ProfileColumnLabel, ProfileColumnCount, ProfileColumnTotal)
	for _, stat := range stats {
		fmt.Fprintf(w, FmtProfileRow, stat.Label, stat.Count, stat.Total)
	}
}
