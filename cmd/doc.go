// Package cmd provides the command-line interface for namesake.
//
// # Available Commands
//
//   - rewrite: replace dead names in HTML documents or stdin
//   - revert: strip markers and restore the original text
//   - scope: show whether a site would be rewritten
//   - watch: rewrite documents as they change on disk
//   - replay: apply recorded DOM mutations to a live document
//   - config: show and validate the resolved configuration
//   - version: show build information
//
// # Command Examples
//
//	// Rewrite a site into a separate directory
//	namesake rewrite --url https://example.com/ -o out/ site/*.html
//
//	// Check the scope decision for a page
//	namesake scope --format json https://example.com/admin
//
//	// Rewrite as documents change
//	namesake watch site/
//
// # Configuration Integration
//
// Configuration is read with the following precedence (highest first):
//
//  1. Command-line flags (--config, --log-level)
//  2. NAMESAKE_CONFIG_FILE: path to a configuration file
//  3. NAMESAKE_<KEY> environment variables, also loaded from a .env file
//  4. .namesake.yml in the working directory, then
//     $XDG_CONFIG_HOME/namesake/config.yml
//  5. Default values
//
// Logs go to stderr, so documents written to stdout stay pipeable.
package cmd
