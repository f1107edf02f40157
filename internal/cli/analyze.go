package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/critic/internal/config"
	"github.com/dshills/critic/internal/output"
	"github.com/dshills/critic/internal/review"
)

// Analyze flags
var (
	flagProvider    string
	flagModel       string
	flagEndpoint    string
	flagFormat      string
	flagOut         string
	flagFailOn      string
	flagRules       string
	flagExecTimeout int
	flagNoRedact    bool
	flagNoAdvisory  bool
	flagNoExec      bool
	flagSummary     bool
)

func addAnalyzeFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagProvider, "provider", "", "Advisory provider (ollama, openai, lmstudio, anthropic, gemini)")
	cmd.Flags().StringVar(&flagModel, "model", "", "Advisory model name")
	cmd.Flags().StringVar(&flagEndpoint, "endpoint", "", "Advisory provider base URL")
	cmd.Flags().StringVar(&flagFormat, "format", "", "Output format ("+strings.Join(output.Formats, ", ")+")")
	cmd.Flags().StringVar(&flagOut, "out", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&flagFailOn, "fail-on", "", "Fail on severity threshold (none, low, medium, high)")
	cmd.Flags().StringVar(&flagRules, "rules", "", "Rules file path")
	cmd.Flags().IntVar(&flagExecTimeout, "exec-timeout", 0, "Execution time limit in seconds")
	cmd.Flags().BoolVar(&flagNoRedact, "no-redact", false, "Disable secret redaction (use with caution)")
	cmd.Flags().BoolVar(&flagNoAdvisory, "no-advisory", false, "Skip the advisory stage")
	cmd.Flags().BoolVar(&flagNoExec, "no-exec", false, "Skip the execution stage")
	cmd.Flags().BoolVar(&flagSummary, "summary", false, "Append severity counts and stage timings to text output")
}

func buildOverrides() map[string]string {
	m := make(map[string]string)
	if flagProvider != "" {
		m["provider"] = flagProvider
	}
	if flagModel != "" {
		m["model"] = flagModel
	}
	if flagEndpoint != "" {
		m["endpoint"] = flagEndpoint
	}
	if flagFormat != "" {
		m["format"] = flagFormat
	}
	if flagFailOn != "" {
		m["failOn"] = flagFailOn
	}
	if flagRules != "" {
		m["rulesFile"] = flagRules
	}
	if flagExecTimeout > 0 {
		m["sandbox.timeoutSeconds"] = strconv.Itoa(flagExecTimeout)
	}
	if flagNoAdvisory {
		m["advisoryEnabled"] = "false"
	}
	if flagNoExec {
		m["sandbox.enabled"] = "false"
	}
	if flagNoRedact {
		m["privacy.redactSecrets"] = "false"
	}
	return m
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file|-]",
	Short: "Analyze a Python source file (or stdin)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}
		path := "-"
		if len(args) == 1 {
			path = args[0]
		}
		runAnalyze(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), path, cfg)
		return nil
	},
}

func runAnalyze(ctx context.Context, stdin io.Reader, stdout io.Writer, path string, cfg config.Config) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !cfg.Privacy.RedactSecrets && cfg.AdvisoryEnabled {
		fmt.Fprintln(os.Stderr, "WARNING: secret redaction is disabled")
	}

	name, data, err := readSource(stdin, path)
	if err != nil {
		fail(ExitRuntimeError, "%v", err)
		return
	}

	logger := newLogger(cfg)
	pipeline, err := buildPipeline(cfg, logger, nil)
	if err != nil {
		fail(setupExitCode(err), "%v", err)
		return
	}

	report, err := pipeline.AnalyzeBytes(ctx, name, data)
	if err != nil {
		if errors.Is(err, review.ErrDecode) {
			fail(ExitUsageError, "%s: %v", name, err)
			return
		}
		fail(ExitRuntimeError, "%v", err)
		return
	}

	if err := writeReport(stdout, report, cfg.Format, flagOut); err != nil {
		fail(ExitRuntimeError, "writing output: %v", err)
		return
	}

	if cfg.FailOn != "none" && cfg.FailOn != "" {
		for _, f := range report.Findings() {
			if review.MeetsThreshold(f.Severity, cfg.FailOn) {
				exitCode = ExitFindings
				return
			}
		}
	}
}

// readSource reads path, or stdin when path is "-".
func readSource(stdin io.Reader, path string) (string, []byte, error) {
	if path == "-" || path == "" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", nil, fmt.Errorf("reading stdin: %w", err)
		}
		return "stdin", data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if filepath.Ext(path) != ".py" {
		fmt.Fprintf(os.Stderr, "WARNING: %s does not have a .py extension\n", path)
	}
	return filepath.Base(path), data, nil
}

func writeReport(stdout io.Writer, report *review.Report, format, outPath string) error {
	if outPath != "" {
		return output.WriteReport(report, format, outPath)
	}
	writer, err := output.GetWriter(format)
	if err != nil {
		return err
	}
	if tw, ok := writer.(*output.TextWriter); ok {
		tw.Summary = flagSummary
	}
	return writer.Write(stdout, report)
}

func init() {
	addAnalyzeFlags(analyzeCmd)
}
