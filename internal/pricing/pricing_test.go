package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateIdentity(t *testing.T) {
	cases := []struct {
		name                                string
		adults, children, infants           int
		priceAdult, priceChild, priceInfant float64
		taxRate                             float64
	}{
		{"family with tax", 2, 1, 0, 100, 50, 0, 0.05},
		{"single adult", 1, 0, 0, 350, 0, 0, 0},
		{"large group", 10, 4, 2, 75.5, 40.25, 10, 0.12},
		{"free infants", 2, 0, 3, 120, 60, 0, 0},
		{"empty party", 0, 0, 0, 100, 50, 25, 0.2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q, err := Calculate(tc.adults, tc.children, tc.infants, tc.priceAdult, tc.priceChild, tc.priceInfant, tc.taxRate)
			require.NoError(t, err)

			wantBase := float64(tc.adults)*tc.priceAdult + float64(tc.children)*tc.priceChild + float64(tc.infants)*tc.priceInfant
			assert.InDelta(t, wantBase, q.Base, 1e-9)
			assert.InDelta(t, wantBase*tc.taxRate, q.Tax, 1e-9)
			assert.InDelta(t, q.Base+q.Tax, q.Total, 1e-9)

			if tc.taxRate == 0 {
				assert.Zero(t, q.Tax)
			}
		})
	}
}

func TestCalculateSpecExample(t *testing.T) {
	// 2 adults at 100, 1 child at 50, 5% tax.
	q, err := Calculate(2, 1, 0, 100, 50, 0, 0.05)
	require.NoError(t, err)
	assert.InDelta(t, 250.0, q.Base, 1e-9)
	assert.InDelta(t, 12.5, q.Tax, 1e-9)
	assert.InDelta(t, 262.5, q.Total, 1e-9)
}

func TestCalculateRejectsNegatives(t *testing.T) {
	_, err := Calculate(-1, 0, 0, 100, 50, 0, 0)
	assert.ErrorIs(t, err, ErrNegativeInput)

	_, err = Calculate(1, 0, 0, -100, 0, 0, 0)
	assert.ErrorIs(t, err, ErrNegativeInput)

	_, err = Calculate(1, 0, 0, 100, 0, 0, -0.05)
	assert.ErrorIs(t, err, ErrNegativeInput)
}
