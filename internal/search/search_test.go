package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContains(t *testing.T) {
	tests := []struct {
		name  string
		s     string
		query string
		want  bool
	}{
		{name: "empty query", s: "Bread", query: "", want: true},
		{name: "exact", s: "Bread", query: "Bread", want: true},
		{name: "case insensitive", s: "Bread", query: "bREAD", want: true},
		{name: "substring", s: "Sourdough bread", query: "dough", want: true},
		{name: "no match", s: "Coffee", query: "tea", want: false},
		{name: "accented", s: "Pão de Queijo", query: "PÃO", want: true},
		{name: "decomposed accent", s: "Pa\u0303o", query: "pão", want: true},
		{name: "no tokenization", s: "Pão de Queijo", query: "pão queijo", want: false},
		{name: "query longer than text", s: "Pão", query: "Pão francês", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Contains(tt.s, tt.query))
		})
	}
}
