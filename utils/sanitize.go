package utils

import "github.com/microcosm-cc/bluemonday"

var sanitizer = bluemonday.UGCPolicy()

// Sanitize cleans rich-text HTML coming from the editor widget. The frontend
// also sanitizes, but only this side is trusted.
func Sanitize(input string) string {
	return sanitizer.Sanitize(input)
}
