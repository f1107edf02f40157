// Package server exposes the analysis pipeline over HTTP.
//
// Routes:
//
//	GET  /         upload form
//	POST /analyze  multipart upload (field pythonFile), ?format=legacy|text|html|json|markdown|sarif
//	GET  /health   liveness
//	GET  /metrics  prometheus metrics
//
// Every analysis outcome, including a syntax error in the upload, is a 200.
// 400 covers a missing part, an empty filename, a non-.py name, and bytes
// that are not UTF-8; 500 is reserved for a pipeline fault.
package server
