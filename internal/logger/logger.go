// Package logger provides tagged, colorized console output.
package logger

import (
	"fmt"
	"time"
)

const (
	colorReset  = "\033[0m"
	colorCyan   = "\033[36m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

func timestamp() string {
	return time.Now().Format("15:04:05")
}

func line(color, level, tag, msg string) {
	fmt.Printf("%s%s%s %s%-7s%s [%s] %s\n",
		colorGray, timestamp(), colorReset,
		color, level, colorReset, tag, msg)
}

// Info logs an informational message under a component tag.
func Info(tag, msg string) {
	line(colorCyan, "INFO", tag, msg)
}

// Success logs a success message under a component tag.
func Success(tag, msg string) {
	line(colorGreen, "OK", tag, msg)
}

// Warn logs a warning under a component tag.
func Warn(tag, msg string) {
	line(colorYellow, "WARN", tag, msg)
}

// Error logs an error under a component tag.
func Error(tag, msg string) {
	line(colorRed, "ERROR", tag, msg)
}

// Section prints a section divider used around statistics blocks.
func Section(title string) {
	fmt.Printf("\n%s%s── %s %s%s\n", colorBold, colorCyan, title, "──────────────────", colorReset)
}

// Stats prints a single aligned key/value statistic.
func Stats(key string, value int) {
	fmt.Printf("  %-14s %d\n", key, value)
}

// Banner prints the startup banner with the build version.
func Banner(version string) {
	fmt.Printf("%s%s\nEVE-NEIC — Net Earnings Industry Calculator %s\n%s\n", colorBold, colorCyan, version, colorReset)
}

// Server announces the listen address.
func Server(addr string) {
	fmt.Printf("%sListening on http://%s%s\n", colorGreen, addr, colorReset)
}
