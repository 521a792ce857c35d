//go:build linux

package main

import (
	"os"

	"golang.org/x/sys/unix"
)

// isTerminal is true if the file is an interactive terminal.
func isTerminal(file *os.File) bool {
	_, err := unix.IoctlGetTermios(int(file.Fd()), unix.TCGETS)
	return err == nil
}
