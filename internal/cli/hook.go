package cli

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

const (
	hookMarkerStart = "# >>> critic pre-commit hook >>>"
	hookMarkerEnd   = "# <<< critic pre-commit hook <<<"
)

var (
	hookFailOn   string
	hookAdvisory bool
)

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Manage git pre-commit hook",
}

var hookInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install critic as a git pre-commit hook",
	RunE: func(cmd *cobra.Command, args []string) error {
		hookPath, err := getHookPath()
		if err != nil {
			fail(ExitRuntimeError, "%v", err)
			return nil
		}

		section := generateHookScript(hookFailOn, hookAdvisory)

		existing, err := os.ReadFile(hookPath)
		if err != nil && !os.IsNotExist(err) {
			fail(ExitRuntimeError, "reading hook file: %v", err)
			return nil
		}

		var content string
		if os.IsNotExist(err) || len(existing) == 0 {
			content = "#!/bin/sh\n" + section
		} else {
			content = replaceHookSection(string(existing), section)
		}

		if err := os.MkdirAll(filepath.Dir(hookPath), 0o755); err != nil {
			fail(ExitRuntimeError, "creating hooks directory: %v", err)
			return nil
		}

		if err := os.WriteFile(hookPath, []byte(content), 0o755); err != nil {
			fail(ExitRuntimeError, "writing hook file: %v", err)
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Installed critic pre-commit hook at %s\n", hookPath)
		return nil
	},
}

var hookUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove critic pre-commit hook",
	RunE: func(cmd *cobra.Command, args []string) error {
		hookPath, err := getHookPath()
		if err != nil {
			fail(ExitRuntimeError, "%v", err)
			return nil
		}

		existing, err := os.ReadFile(hookPath)
		if err != nil {
			if os.IsNotExist(err) {
				fmt.Fprintln(cmd.OutOrStdout(), "No pre-commit hook found.")
				return nil
			}
			fail(ExitRuntimeError, "reading hook file: %v", err)
			return nil
		}

		content := removeHookSection(string(existing))

		// Only a shebang left: remove the file.
		trimmed := strings.TrimSpace(content)
		if trimmed == "" || trimmed == "#!/bin/sh" || trimmed == "#!/bin/bash" {
			if err := os.Remove(hookPath); err != nil {
				fail(ExitRuntimeError, "removing hook file: %v", err)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed critic pre-commit hook at %s\n", hookPath)
			return nil
		}

		if err := os.WriteFile(hookPath, []byte(content), 0o755); err != nil {
			fail(ExitRuntimeError, "writing hook file: %v", err)
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Removed critic section from %s\n", hookPath)
		return nil
	},
}

func getHookPath() (string, error) {
	out, err := exec.Command("git", "rev-parse", "--git-dir").Output()
	if err != nil {
		return "", fmt.Errorf("not a git repository (git rev-parse --git-dir failed)")
	}
	gitDir := strings.TrimSpace(string(out))
	return filepath.Join(gitDir, "hooks", "pre-commit"), nil
}

// generateHookScript returns the marked hook section. Each staged Python
// file is analyzed on its own; exit 1 from any file blocks the commit and
// exit codes of 2 or more only warn.
func generateHookScript(failOn string, advisory bool) string {
	flags := "--fail-on " + failOn + " --format text"
	if !advisory {
		flags = "--no-advisory " + flags
	}

	var b strings.Builder
	b.WriteString(hookMarkerStart + "\n")
	b.WriteString("CRITIC_BLOCK=0\n")
	b.WriteString("for f in $(git diff --cached --name-only --diff-filter=ACM -- '*.py'); do\n")
	b.WriteString(fmt.Sprintf("  critic analyze %s \"$f\"\n", flags))
	b.WriteString("  CRITIC_EXIT=$?\n")
	b.WriteString("  if [ $CRITIC_EXIT -eq 1 ]; then\n")
	b.WriteString("    CRITIC_BLOCK=1\n")
	b.WriteString("  elif [ $CRITIC_EXIT -ge 2 ]; then\n")
	b.WriteString("    echo \"critic: could not analyze $f (exit $CRITIC_EXIT), allowing commit\"\n")
	b.WriteString("  fi\n")
	b.WriteString("done\n")
	b.WriteString("if [ $CRITIC_BLOCK -eq 1 ]; then\n")
	b.WriteString("  echo \"critic: findings above threshold, commit blocked\"\n")
	b.WriteString("  exit 1\n")
	b.WriteString("fi\n")
	b.WriteString(hookMarkerEnd + "\n")
	return b.String()
}

func replaceHookSection(existing, section string) string {
	startIdx := strings.Index(existing, hookMarkerStart)
	endIdx := strings.Index(existing, hookMarkerEnd)

	if startIdx == -1 || endIdx == -1 {
		if !strings.HasSuffix(existing, "\n") {
			existing += "\n"
		}
		return existing + section
	}

	before := existing[:startIdx]
	after := existing[endIdx+len(hookMarkerEnd):]
	after = strings.TrimPrefix(after, "\n")
	return before + section + after
}

func removeHookSection(existing string) string {
	startIdx := strings.Index(existing, hookMarkerStart)
	endIdx := strings.Index(existing, hookMarkerEnd)

	if startIdx == -1 || endIdx == -1 {
		return existing
	}

	before := existing[:startIdx]
	after := existing[endIdx+len(hookMarkerEnd):]
	after = strings.TrimPrefix(after, "\n")

	return before + after
}

func init() {
	hookCmd.AddCommand(hookInstallCmd)
	hookCmd.AddCommand(hookUninstallCmd)
	hookInstallCmd.Flags().StringVar(&hookFailOn, "fail-on", "high", "Fail on severity threshold (low, medium, high)")
	hookInstallCmd.Flags().BoolVar(&hookAdvisory, "advisory", false, "Run the advisory stage in the hook")
}
