package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlug(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"My Book", "my-book"},
		{"  Spaces   Everywhere  ", "spaces-everywhere"},
		{"Crème Brûlée", "creme-brulee"},
		{"Chapter 12: The End!", "chapter-12-the-end"},
		{"already-kebab", "already-kebab"},
		{"", ""},
		{"---", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slug(tt.title), "Slug(%q)", tt.title)
	}
}
