// Package output writes analysis reports.
//
// Supported formats:
//   - text: the rendered report lines, optionally followed by a summary
//   - json: the full report structure
//   - markdown: per-stage sections with rule documentation
//   - html: the markdown report converted with goldmark and sanitized
//   - sarif: actionable findings as SARIF v2.1.0
//   - legacy: the rendered lines joined with <br> for the upload page
package output
