package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateBookingReferenceFormat(t *testing.T) {
	ref := GenerateBookingReference()
	assert.True(t, strings.HasPrefix(ref, "BK"), "reference %q missing BK prefix", ref)
	assert.Len(t, ref, 17)
	for _, r := range ref[2:] {
		assert.True(t, r >= '0' && r <= '9', "reference %q has non-digit %q", ref, r)
	}
}

func TestGenerateBookingReferenceUniqueness(t *testing.T) {
	const n = 10000
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		ref := GenerateBookingReference()
		if _, dup := seen[ref]; dup {
			t.Fatalf("duplicate reference after %d generations: %s", i, ref)
		}
		seen[ref] = struct{}{}
	}
}

func TestGenerateSessionIDPrefix(t *testing.T) {
	assert.True(t, strings.HasPrefix(GenerateSessionID(), "pay_"))
	assert.True(t, strings.HasPrefix(GenerateTransactionID(), "txn_"))
}

func TestGenerateIDsAreUnique(t *testing.T) {
	assert.NotEqual(t, GenerateSessionID(), GenerateSessionID())
	assert.NotEqual(t, GenerateTransactionID(), GenerateTransactionID())
}
