package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
)

func GenerateReservationID() string {
	return uuid.New().String()
}

func GenerateUserID() string {
	return "user-" + uuid.New().String()
}

func GenerateSessionID() string {
	return uuid.New().String()
}

// GenerateConfirmationNumber builds PREFIX-YYYYMMDD-NNNN with NNNN in
// 1000-9999 from createdAt's local date.
func GenerateConfirmationNumber(prefix string, createdAt time.Time) string {
	if prefix == "" {
		prefix = "BK"
	}
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	suffix := int64(1000)
	if err == nil {
		suffix += n.Int64()
	}
	return fmt.Sprintf("%s-%s-%04d", prefix, createdAt.Format("20060102"), suffix)
}
