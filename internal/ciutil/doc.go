// Package ciutil detects CI environments and resolves the environment
// variables integration tests read.
package ciutil
