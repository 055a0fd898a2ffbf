package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
)

// GenerateBookingReference builds the short human-readable token shown to
// customers, e.g. BK250829481937204. Date prefix for sortability, a
// nanosecond tail plus random digits for entropy. Uniqueness is still
// enforced by the storage layer; callers retry on conflict.
func GenerateBookingReference() string {
	now := time.Now()
	randomNum, _ := rand.Int(rand.Reader, big.NewInt(1000))
	return fmt.Sprintf("BK%s%06d%03d", now.Format("060102"), now.UnixNano()%1000000, randomNum.Int64())
}

// GenerateSessionID identifies one payment attempt.
func GenerateSessionID() string {
	return "pay_" + uuid.NewString()
}

// GenerateTransactionID stamps pseudo payment ids for manual settlements
// where no external gateway issues one.
func GenerateTransactionID() string {
	return "txn_" + uuid.NewString()
}
