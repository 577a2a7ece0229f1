package cnj

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("well formed", func(t *testing.T) {
		n, err := Parse("0001234-06.2020.8.26.0100")
		require.NoError(t, err)
		assert.Equal(t, "0001234", n.Sequential)
		assert.Equal(t, "06", n.CheckDigit)
		assert.Equal(t, "2020", n.Year)
		assert.Equal(t, "8", n.Segment)
		assert.Equal(t, "26", n.Court)
		assert.Equal(t, "0100", n.Origin)
		assert.Equal(t, "0001234-06.2020.8.26.0100", n.String())
	})

	t.Run("surrounding whitespace tolerated", func(t *testing.T) {
		_, err := Parse("  0001234-06.2020.8.26.0100 ")
		assert.NoError(t, err)
	})

	t.Run("malformed", func(t *testing.T) {
		for _, s := range []string{
			"",
			"1234567",
			"0001234-06.2020.8.26.010",   // short origin
			"0001234/06.2020.8.26.0100",  // wrong separator
			"0001234-06.2020.88.26.0100", // two-digit segment
		} {
			_, err := Parse(s)
			assert.Error(t, err, s)
		}
	})
}

func TestValid(t *testing.T) {
	valid := []string{
		"0001234-06.2020.8.26.0100",
		"1234567-42.2019.8.26.0000",
		"0000001-79.2024.4.03.0000",
	}
	for _, s := range valid {
		assert.True(t, Valid(s), s)
	}

	t.Run("wrong check digit", func(t *testing.T) {
		assert.False(t, Valid("0001234-07.2020.8.26.0100"))
		assert.False(t, Valid("1234567-00.2019.8.26.0000"))
		assert.False(t, Valid("1234567-89.2023.8.26.0001"))
	})

	t.Run("malformed is invalid", func(t *testing.T) {
		assert.False(t, Valid("not a case number"))
	})
}

func TestValidate(t *testing.T) {
	t.Run("correct digit", func(t *testing.T) {
		n, err := Parse("0001234-06.2020.8.26.0100")
		require.NoError(t, err)
		assert.NoError(t, n.Validate())
	})

	// Parse alone accepts any two digits in the DD slot; Validate is
	// what rejects a fabricated number.
	t.Run("fabricated digit parses but fails validation", func(t *testing.T) {
		n, err := Parse("1234567-89.2023.8.26.0001")
		require.NoError(t, err)
		assert.Error(t, n.Validate())
	})
}

func TestSegmentName(t *testing.T) {
	n, err := Parse("0001234-06.2020.8.26.0100")
	require.NoError(t, err)
	assert.Equal(t, "Justiça dos Estados e do Distrito Federal e Territórios", n.SegmentName())
}
