// Package ids generates game ids, seat tokens and join codes.
package ids

import (
	"crypto/rand"
	"math/big"

	"github.com/google/uuid"
)

const (
	JoinCodeLength  = 9
	joinCodeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

type Generator struct{}

func (Generator) GameID() string { return uuid.NewString() }

func (Generator) Token() string { return uuid.NewString() }

func (Generator) JoinCode() (string, error) {
	code := make([]byte, JoinCodeLength)
	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(joinCodeCharset))))
		if err != nil {
			return "", err
		}
		code[i] = joinCodeCharset[num.Int64()]
	}
	return string(code), nil
}
