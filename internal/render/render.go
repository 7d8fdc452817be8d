// Package render fills notification templates with per-user substitution
// values. Pure string work, no store or transport interaction.
package render

import (
	"strings"

	"notification-dispatcher/internal/models"
)

// Render replaces each {Name} placeholder in tmpl with its value from subs.
// Unknown placeholders are left untouched. Values are substituted verbatim;
// callers embedding user input in HTML templates should escape values first.
func Render(tmpl string, subs map[string]string) string {
	result := tmpl
	for k, v := range subs {
		result = strings.ReplaceAll(result, "{"+k+"}", v)
	}
	return result
}

// FullName returns the "Last, First" form used in greetings and as the
// recipient display name.
func FullName(u models.User) string {
	return u.LastName + ", " + u.FirstName
}
