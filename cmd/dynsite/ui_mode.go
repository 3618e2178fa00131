package main

import (
	"fmt"
	"os"
	"strings"
)

// switchMode is the value of the auto|on|off flags (--color, --ui).
type switchMode uint8

const (
	switchAuto switchMode = iota
	switchOn
	switchOff
)

func readSwitch(flag, value string) (switchMode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "auto":
		return switchAuto, nil
	case "on":
		return switchOn, nil
	case "off":
		return switchOff, nil
	}
	return switchAuto, fmt.Errorf("invalid --%s value %q (expected auto|on|off)", flag, value)
}

// enabledFor resolves auto by asking whether f is a terminal.
func (m switchMode) enabledFor(f *os.File) bool {
	switch m {
	case switchOn:
		return true
	case switchOff:
		return false
	}
	return isTerminal(f)
}
