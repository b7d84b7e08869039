package util

import "strings"

// Shout uppercases a message for emphasis.
func Shout(msg string) string {
	return strings.ToUpper(msg)
}
