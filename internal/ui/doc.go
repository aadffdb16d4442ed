// Package ui provides semantic text formatting for CLI output.
//
// Formatters carry meaning (Success, Error, Path, Highlight) rather than raw
// colors, and degrade to plain-text decorations when color is disabled via
// NO_COLOR or terminal detection. Command final messages are assembled from
// these formatters so output stays consistent across commands.
package ui
