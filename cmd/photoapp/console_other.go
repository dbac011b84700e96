//go:build !windows

package main

// manageConsole is a no-op outside Windows
func manageConsole(debug bool) {}
