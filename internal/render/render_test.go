package render

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"notification-dispatcher/internal/models"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		tmpl     string
		subs     map[string]string
		expected string
	}{
		{
			name:     "single placeholder",
			tmpl:     "Hello {UserName}, welcome",
			subs:     map[string]string{"UserName": "Doe, Jane"},
			expected: "Hello Doe, Jane, welcome",
		},
		{
			name:     "placeholder repeated",
			tmpl:     "{UserName} and {UserName}",
			subs:     map[string]string{"UserName": "Smith, Bob"},
			expected: "Smith, Bob and Smith, Bob",
		},
		{
			name:     "unknown placeholder left as is",
			tmpl:     "Hi {UserName}, your code is {Code}",
			subs:     map[string]string{"UserName": "Doe, Jane"},
			expected: "Hi Doe, Jane, your code is {Code}",
		},
		{
			name:     "no placeholders",
			tmpl:     "Plain text body",
			subs:     map[string]string{"UserName": "Doe, Jane"},
			expected: "Plain text body",
		},
		{
			name:     "empty template",
			tmpl:     "",
			subs:     map[string]string{"UserName": "Doe, Jane"},
			expected: "",
		},
		{
			name:     "value substituted verbatim",
			tmpl:     "Hello {UserName}",
			subs:     map[string]string{"UserName": "O'Brien, <Anne>"},
			expected: "Hello O'Brien, <Anne>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Render(tt.tmpl, tt.subs))
		})
	}
}

func TestFullName(t *testing.T) {
	u := models.User{FirstName: "Jane", LastName: "Doe"}
	assert.Equal(t, "Doe, Jane", FullName(u))
}
