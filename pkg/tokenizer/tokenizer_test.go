package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeywords(t *testing.T) {
	t.Run("drops short function words", func(t *testing.T) {
		assert.Equal(t,
			[]string{"aluguel", "pago"},
			Keywords("aluguel não pago"))
	})

	t.Run("lowercases and strips punctuation", func(t *testing.T) {
		assert.Equal(t,
			[]string{"contrato", "locação", "comercial"},
			Keywords("Contrato de Locação, COMERCIAL!"))
	})

	t.Run("deduplicates preserving order", func(t *testing.T) {
		assert.Equal(t,
			[]string{"despejo", "falta", "pagamento"},
			Keywords("despejo por falta de pagamento despejo"))
	})

	t.Run("empty query", func(t *testing.T) {
		assert.Empty(t, Keywords(""))
		assert.Empty(t, Keywords("a de o e"))
	})
}

func TestCountTokens(t *testing.T) {
	assert.Equal(t, 1, CountTokens(""))
	assert.Equal(t, 4, CountTokens("ação de despejo"))
}
