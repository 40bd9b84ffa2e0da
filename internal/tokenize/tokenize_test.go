// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tokenize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		language string
		want     string
		wantErr  bool
	}{
		{"spanish", "spanish", "spanish", false},
		{"case and space insensitive", "  English ", "english", false},
		{"unsupported", "klingon", "", true},
		{"empty", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok, err := New(tt.language)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnsupportedLanguage)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, tok.Language())
		})
	}
}

func TestTokens(t *testing.T) {
	tok, err := New("spanish")
	require.NoError(t, err)

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"drops stopwords and lowercases", "El Presidente de la República", []string{"presidente", "república"}},
		{"drops punctuation and numbers", "Ventas: 2024, crecen 15%!", []string{"ventas", "crecen"}},
		{"drops mixed alphanumerics", "covid19 vacuna", []string{"vacuna"}},
		{"keeps accented letters", "Árbol añejo", []string{"árbol", "añejo"}},
		{"only stopwords", "de la que el en", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tok.Tokens(tt.text))
		})
	}
}

func TestCount(t *testing.T) {
	es, err := New("spanish")
	require.NoError(t, err)
	en, err := New("english")
	require.NoError(t, err)

	tests := []struct {
		name string
		tok  *Tokenizer
		text string
		want int
	}{
		{"empty", es, "", 0},
		{"whitespace only", es, "  \t \n ", 0},
		{"spanish sentence", es, "un titulo de prueba", 2},
		{"english sentence", en, "The quick brown fox jumps over the lazy dog", 6},
		{"repeated words counted each time", es, "casa casa casa", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.tok.Count(tt.text)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got, 0)
		})
	}
}

func TestLanguages(t *testing.T) {
	assert.Equal(t, []string{"english", "spanish"}, Languages())
}
