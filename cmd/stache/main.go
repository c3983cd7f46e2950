package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	exitCode := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	os.Exit(exitCode)
}

// exitError carries the process exit code for a failed command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// failf builds an exitError whose message is msg followed by cause.
func failf(code int, msg string, cause error) error {
	if cause == nil {
		return &exitError{code: code, err: errors.New(msg)}
	}
	return &exitError{code: code, err: fmt.Errorf(FmtErrorWithCause, msg, cause)}
}

// cliContext holds the streams and global flags shared by all commands.
type cliContext struct {
	stdin    io.Reader
	stdout   io.Writer
	stderr   io.Writer
	logLevel string
}

// logger builds a console logger on stderr at the requested level.
func (c *cliContext) logger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.logLevel)
	if err != nil {
		return nil, failf(ExitCodeUsageError, ErrMsgInvalidLogLevel, err)
	}
	encoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	core := zapcore.NewCore(encoder, zapcore.AddSync(c.stderr), level)
	return zap.New(core), nil
}

// run is the main entry point for the CLI, separated for testing
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cli := &cliContext{stdin: stdin, stdout: stdout, stderr: stderr}

	// cobra falls back to os.Args when given nil.
	if args == nil {
		args = []string{}
	}

	root := newRootCmd(cli)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if err == nil {
		return ExitCodeSuccess
	}

	fmt.Fprintln(stderr, err)

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	// Anything cobra itself rejects (unknown command, bad flag) is a usage error.
	return ExitCodeUsageError
}

func newRootCmd(cli *cliContext) *cobra.Command {
	root := &cobra.Command{
		Use:           CLIName,
		Short:         CLIDescription,
		Long:          CLILong,
		SilenceUsage:  true,
		SilenceErrors: true, // run prints errors
	}

	root.PersistentFlags().StringVar(&cli.logLevel, FlagLogLevel, FlagDefaultLogLevel,
		"log level: debug, info, warn, error")

	root.AddCommand(
		newRenderCmd(cli),
		newStoreCmd(cli),
		newVersionCmd(cli),
	)
	return root
}
