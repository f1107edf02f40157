// Critic reviews a single Python source file.
//
// It gates on syntax, scans for risky patterns, scores maintainability and
// per-function complexity, runs a learned bug classifier and a sandboxed
// execution, and finally asks an LLM for advice. Results come out as text,
// JSON, Markdown, HTML, SARIF, or the legacy <br>-joined form, with exit
// codes suitable for CI gating and git hooks.
//
// Usage:
//
//	critic analyze app.py                # analyze a file
//	cat app.py | critic analyze -        # analyze stdin
//	critic analyze --format sarif app.py # SARIF for code scanning
//	critic serve --addr :5000            # upload server
//	critic rules                         # list pattern rules
//	critic hook install                  # pre-commit hook for staged .py files
package main
