// Package internal contains the core implementation packages for namesake.
//
// # Package Organization
//
// The internal packages are organized by functional domain:
//
//   - pattern: case-insensitive whole-word matching of name pairs
//   - dom: the live HTML document with mutation records and readiness
//   - replacer: the text processor that marks, replaces and reverts names
//   - observer: frame-batched reprocessing of mutated subtrees
//   - scope: allowlist and blocklist resolution for sites
//   - style: the marker stylesheet and the render-blocking class
//   - session: one document moving between enabled and disabled states
//   - status: the parsing status and its text, JSON, YAML and markdown forms
//   - config: Viper-backed configuration with validation
//   - feed: recorded DOM mutation feeds
//   - pipeline: file and stream rewriting with bounded fan-out
//   - report: markdown and HTML summaries of a batch
//   - watcher: file system monitoring with debouncing
//   - logging, errors: structured logging and error types
//
// # Inter-Package Communication
//
//   - Session owns one replacer.Processor and one observer.Watcher per document
//   - The observer drains mutations on frames under the session lock
//   - Pipeline runs one session per document and never shares them
//   - Watcher feeds changed files to the pipeline
package internal
