//go:build !linux

package main

import (
	"os"
)

// isTerminal is true if the file is an interactive terminal.
// Without termios, only a character device is assumed to be one.
func isTerminal(file *os.File) bool {
	info, err := file.Stat()
	if err != nil {
		return false
	}

	return info.Mode()&os.ModeCharDevice != 0
}
