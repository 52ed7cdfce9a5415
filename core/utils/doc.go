// Package utils provides loose conversion helpers for values decoded from
// JSON or YAML spec files, where numbers, booleans and strings are often
// written interchangeably.
package utils
