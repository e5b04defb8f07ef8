package dispatch

import (
	"context"
	"crypto/rand"

	"github.com/pkg/errors"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 6

	// 36^6 кодов; столько попыток при коллизиях означает деградацию базы,
	// а не невезение.
	maxCodeAttempts = 100
)

func newOrderCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "read random")
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}

// generateUniqueCode перегенерирует код, пока не найдёт свободный.
func (s *Service) generateUniqueCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := newOrderCode()
		if err != nil {
			return "", err
		}
		exists, err := s.repo.OrderCodeExists(ctx, code)
		if err != nil {
			return "", errors.Wrap(err, "check order code")
		}
		if !exists {
			return code, nil
		}
	}
	return "", errors.New("order code space exhausted")
}
