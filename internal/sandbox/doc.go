// Package sandbox runs Python source in a child interpreter and reports the
// first runtime fault.
//
// Execution is best effort and is not a security boundary. The Python
// executor writes the source into a fresh temporary directory, starts the
// interpreter in isolated mode with a minimal environment and a wall-clock
// timeout, applies CPU, address-space and file-size limits on linux, and caps
// how many interpreters run at once.
package sandbox
