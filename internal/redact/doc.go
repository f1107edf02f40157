// Package redact finds and masks credentials embedded in Python source.
//
// The same detectors serve two callers: the pattern scanner reports a line
// that matches one as a hardcoded secret, and the advisory stage masks every
// match with [REDACTED] before the source leaves the process.
package redact
