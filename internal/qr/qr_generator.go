package qr

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/skip2/go-qrcode"

	"ms-reservation/internal/models"
)

// Pass is the summary a venue scans at the door.
type Pass struct {
	ReservationID      string `json:"reservationId"`
	ConfirmationNumber string `json:"confirmationNumber"`
	VenueID            int64  `json:"restaurantId"`
	VenueName          string `json:"restaurantName"`
	Date               string `json:"date"`
	Time               string `json:"time"`
	PartySize          int    `json:"partySize"`
	GuestName          string `json:"guestName"`
	Status             string `json:"status"`
}

func PassFor(r models.Reservation) Pass {
	return Pass{
		ReservationID:      r.ID,
		ConfirmationNumber: r.ConfirmationNumber,
		VenueID:            r.VenueID,
		VenueName:          r.VenueName,
		Date:               r.Date,
		Time:               r.Time,
		PartySize:          r.PartySize,
		GuestName:          r.GuestName,
		Status:             string(r.Status),
	}
}

type QRGenerator struct {
	secret []byte
	size   int
}

func NewQRGenerator(secret string) *QRGenerator {
	hashed := sha256.Sum256([]byte(secret)) // normalize to 32 bytes
	return &QRGenerator{secret: hashed[:], size: 256}
}

// GenerateEncryptedQR returns a PNG whose content is the encrypted pass.
func (q *QRGenerator) GenerateEncryptedQR(r models.Reservation) ([]byte, error) {
	payload, err := q.EncryptPass(PassFor(r))
	if err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(payload, qrcode.Medium, q.size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR: %w", err)
	}
	return png, nil
}

func (q *QRGenerator) EncryptPass(p Pass) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return encryptAES(data, q.secret)
}

// DecryptPass reverses EncryptPass. A payload sealed with another key or
// tampered with fails validation.
func (q *QRGenerator) DecryptPass(payload string) (*Pass, error) {
	data, err := decryptAES(payload, q.secret)
	if err != nil {
		return nil, models.Validationf("unreadable reservation pass")
	}
	var p Pass
	if err := json.Unmarshal(data, &p); err != nil || p.ReservationID == "" {
		return nil, models.Validationf("unreadable reservation pass")
	}
	return &p, nil
}

func encryptAES(data []byte, key []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := gcm.Seal(nonce, nonce, data, nil)
	return base64.URLEncoding.EncodeToString(sealed), nil
}

func decryptAES(payload string, key []byte) ([]byte, error) {
	raw, err := base64.URLEncoding.DecodeString(payload)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	if len(raw) < gcm.NonceSize() {
		return nil, errors.New("payload too short")
	}
	nonce, ciphertext := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]
	return gcm.Open(nil, nonce, ciphertext, nil)
}
