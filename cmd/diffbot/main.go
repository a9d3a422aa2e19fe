package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/byteowlz/diffbot/internal/config"
	"github.com/byteowlz/diffbot/internal/credentials"
	"github.com/byteowlz/diffbot/internal/logging"
	"github.com/byteowlz/diffbot/pkg/diffbot"
)

// Exit codes for granular error handling
const (
	ExitSuccess        = 0
	ExitNetworkError   = 1 // transport failure or error envelope
	ExitJobStatusError = 2 // job not completed, or stopped
	ExitInvalidInput   = 3
	ExitConfigError    = 4 // config or credentials
	ExitFileIOError    = 5
	ExitNotFound       = 6 // job absent from the listing
)

var (
	cfgFile      string
	profile      string
	token        string
	baseURL      string
	apiVersion   int
	timeout      int
	outputFile   string
	outputFormat string
	verbose      bool
	quiet        bool
)

// Set by setup before any command runs.
var (
	cfg       *config.Config
	logger    *slog.Logger
	logCloser io.Closer
)

const version = "0.3.0"

var rootCmd = &cobra.Command{
	Use:   "diffbot",
	Short: "Extract structured content with the Diffbot API",
	Long: `diffbot is a CLI for the Diffbot extraction service.
It runs single-page extractions, manages bulk and crawl jobs, and searches job results.`,
	Version:           version,
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			logCloser.Close()
		}
	},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		var e *exitErr
		if errors.As(err, &e) {
			os.Exit(e.code)
		}
		if !quiet {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(ExitInvalidInput)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/diffbot/config.toml)")
	rootCmd.PersistentFlags().StringVarP(&profile, "profile", "p", "", "credentials profile (default from config)")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "API token (overrides profile lookup)")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "API base URL")
	rootCmd.PersistentFlags().IntVar(&apiVersion, "api-version", 0, "API version")
	rootCmd.PersistentFlags().IntVar(&timeout, "timeout", 0, "request timeout in seconds")
	rootCmd.PersistentFlags().StringVarP(&outputFile, "output", "o", "", "output to file or directory (default: stdout)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "", "output format (text|markdown|json|html)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all non-content output")

	rootCmd.AddCommand(extractCmd, newJobCmd(diffbot.FamilyBulk), newJobCmd(diffbot.FamilyCrawl), searchCmd, configCmd)
}

// setup loads the config and applies the persistent flags on top of it.
func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return exitError(ExitConfigError, "failed to load config: %v", err)
	}

	flags := cmd.Flags()
	if flags.Changed("profile") {
		cfg.API.Profile = profile
	}
	if flags.Changed("base-url") {
		cfg.API.BaseURL = baseURL
	}
	if flags.Changed("api-version") {
		cfg.API.Version = apiVersion
	}
	if flags.Changed("timeout") {
		cfg.API.Timeout = timeout
	}
	if !flags.Changed("format") {
		outputFormat = cfg.Output.DefaultFormat
	}

	logger, logCloser, err = logging.New(cfg.Logging, verbose, quiet)
	if err != nil {
		return exitError(ExitConfigError, "failed to set up logging: %v", err)
	}
	if used := cfgFile; used != "" {
		logger.Debug("using config file", "path", used)
	}
	return nil
}

// newClient resolves the token once: --token, then DIFFBOT_TOKEN[_PROFILE]
// (process environment or .env), then the credentials file.
func newClient() (*diffbot.Client, error) {
	chain := credentials.Chain{
		credentials.Static{Token: token},
		credentials.Env{DotEnv: cfg.Credentials.DotEnv},
		credentials.ProfileFile{Path: cfg.CredentialsFile()},
	}
	client, err := diffbot.New(credentials.Source(chain), cfg.ClientOptions(logger))
	if err != nil {
		return nil, fail(err)
	}
	return client, nil
}

// exitCode maps an error onto the process exit code.
func exitCode(err error) int {
	kind, ok := diffbot.KindOf(err)
	if !ok {
		return ExitNetworkError
	}
	switch kind {
	case diffbot.KindCredential:
		return ExitConfigError
	case diffbot.KindJobStatus:
		return ExitJobStatusError
	case diffbot.KindNotFound:
		return ExitNotFound
	default:
		return ExitNetworkError
	}
}

// fail reports err and wraps it with its exit code.
func fail(err error) *exitErr {
	var e *exitErr
	if errors.As(err, &e) {
		return e
	}
	return exitError(exitCode(err), "%v", err)
}

type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string {
	return e.msg
}

func exitError(code int, format string, args ...any) *exitErr {
	msg := fmt.Sprintf(format, args...)
	if msg != "" && !quiet {
		fmt.Fprintf(os.Stderr, "%s\n", msg)
	}
	return &exitErr{code: code, msg: msg}
}

// info prints progress to stderr unless --quiet.
func info(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}
