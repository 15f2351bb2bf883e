package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMaskPhone(t *testing.T) {
	t.Parallel()

	require.Equal(t, "+15*****4567", MaskPhone("+15551234567"))
	require.Equal(t, "04****1234", MaskPhone("0412341234"))

	// Too short to mask meaningfully.
	require.Equal(t, "1234", MaskPhone("1234"))
}

func TestPhoneHintSelection(t *testing.T) {
	t.Parallel()

	t.Run("picks the phone-kind hint", func(t *testing.T) {
		hints := []FactorHint{
			{FactorID: "f1", Kind: "totp"},
			{FactorID: "f2", Kind: FactorKindPhone, PhoneNumber: "+15*****4567"},
		}
		h, ok := PhoneHint(hints)
		require.True(t, ok)
		require.Equal(t, "f2", h.FactorID)
	})

	t.Run("reports absence", func(t *testing.T) {
		_, ok := PhoneHint([]FactorHint{{Kind: "totp"}})
		require.False(t, ok)

		_, ok = PhoneHint(nil)
		require.False(t, ok)
	})
}
