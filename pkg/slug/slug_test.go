package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerate_BasicASCII(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"The Art of Web Development", "the-art-of-web-development"},
		{"AI and Machine Learning", "ai-and-machine-learning"},
		{"Simple", "simple"},
		{"ALL UPPER CASE", "all-upper-case"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Generate(tt.input))
		})
	}
}

func TestGenerate_Diacritics(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Café Crème", "cafe-creme"},
		{"Les Misérables", "les-miserables"},
		{"Cien años de soledad", "cien-anos-de-soledad"},
		{"Güneş Gözlüğü", "gunes-gozlugu"},
		{"Şeker Bayramı", "seker-bayrami"},
		{"İstanbul", "istanbul"},
		{"Straße", "strasse"},
		{"Søren Kierkegaard", "soren-kierkegaard"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Generate(tt.input))
		})
	}
}

func TestGenerate_NonLatinDropped(t *testing.T) {
	assert.Equal(t, "", Generate("三体"))
	assert.Equal(t, "vol-2", Generate("三体 Vol. 2"))
}

func TestWithID(t *testing.T) {
	assert.Equal(t, "1-the-art-of-web-development", WithID(1, "The Art of Web Development"))
	assert.Equal(t, "5-business-strategy-guide", WithID(5, "  Business Strategy Guide "))
	assert.Equal(t, "7", WithID(7, "!!!"))
	assert.Equal(t, "8", WithID(8, ""))
}

func TestGenerate_SpecialCharacters(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Hello!!! World???", "hello-world"},
		{"foo@bar#baz", "foo-bar-baz"},
		{"C++: The Complete Reference", "c-the-complete-reference"},
		{"one & two", "one-two"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Generate(tt.input))
		})
	}
}

func TestGenerate_WhitespaceHandling(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"leading spaces", "   hello world   ", "hello-world"},
		{"multiple spaces", "hello   world", "hello-world"},
		{"tabs and spaces", "hello\t\tworld", "hello-world"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Generate(tt.input))
		})
	}
}

func TestGenerate_EdgeCases(t *testing.T) {
	assert.Equal(t, "", Generate(""))
	assert.Equal(t, "", Generate("   "))
	assert.Equal(t, "", Generate("!!!"))
	assert.Equal(t, "a", Generate("a"))
	assert.Equal(t, "123", Generate("123"))
}

func TestGenerate_ConsecutiveHyphens(t *testing.T) {
	assert.Equal(t, "a-b", Generate("a---b"))
	assert.Equal(t, "a-b", Generate("a - - b"))
}

func TestGenerate_NoLeadingTrailingHyphens(t *testing.T) {
	assert.Equal(t, "hello", Generate("-hello-"))
	assert.Equal(t, "hello", Generate("!hello!"))
}
