package statuslist

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/sha256"
	"errors"
	"fmt"
	"math/big"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"
)

// es256KeySize - длина r и s в подписи ES256.
const es256KeySize = 32

// SigningMethodES256Deterministic подписывает ES256 детерминированно (RFC 6979):
// одинаковые ключ и данные дают одинаковую подпись. Проверка совпадает с jwt.SigningMethodES256.
var SigningMethodES256Deterministic jwt.SigningMethod = &deterministicES256{}

type deterministicES256 struct{}

func (m *deterministicES256) Alg() string {
	return jwt.SigningMethodES256.Alg()
}

func (m *deterministicES256) Verify(signingString string, sig []byte, key interface{}) error {
	return jwt.SigningMethodES256.Verify(signingString, sig, key)
}

func (m *deterministicES256) Sign(signingString string, key interface{}) ([]byte, error) {
	priv, ok := key.(*ecdsa.PrivateKey)
	if !ok {
		return nil, jwt.ErrInvalidKeyType
	}
	if priv.Curve.Params().BitSize != es256KeySize*8 {
		return nil, jwt.ErrInvalidKey
	}

	digest := sha256.Sum256([]byte(signingString))
	// nil вместо источника случайности включает RFC 6979
	der, err := priv.Sign(nil, digest[:], crypto.SHA256)
	if err != nil {
		return nil, fmt.Errorf("ошибка подписи ES256: %w", err)
	}

	r, s, err := parseASN1Signature(der)
	if err != nil {
		return nil, err
	}

	// JWS хранит подпись как r || s фиксированной длины
	out := make([]byte, 2*es256KeySize)
	r.FillBytes(out[:es256KeySize])
	s.FillBytes(out[es256KeySize:])
	return out, nil
}

func parseASN1Signature(der []byte) (*big.Int, *big.Int, error) {
	var (
		r, s  = new(big.Int), new(big.Int)
		inner cryptobyte.String
	)
	input := cryptobyte.String(der)
	if !input.ReadASN1(&inner, asn1.SEQUENCE) || !input.Empty() ||
		!inner.ReadASN1Integer(r) || !inner.ReadASN1Integer(s) || !inner.Empty() {
		return nil, nil, errInvalidSignature
	}
	return r, s, nil
}

var errInvalidSignature = errors.New("некорректная ASN.1 подпись ECDSA")
