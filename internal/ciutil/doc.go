// Package ciutil detects CI environments and reads the environment variables
// tests and tooling share, masking credentials before they reach a log.
package ciutil
