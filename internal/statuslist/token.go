package statuslist

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TypeJWT - значение заголовка typ токена списка статусов.
const TypeJWT = "statuslist+jwt"

// Token представляет токен списка статусов.
type Token struct {
	Subject        string        // URI списка статусов (sub)
	Issuer         string        // URI издателя (iss)
	IssuedAt       time.Time     // Время выпуска (iat)
	ExpiresAt      time.Time     // Время истечения (exp), нулевое значение - без срока
	TTL            time.Duration // Рекомендуемое время кэширования (ttl)
	AggregationURI string        // URI агрегации списков (необязательно)
	List           *StatusList
}

type statusListClaim struct {
	Bits           int    `json:"bits"`
	List           string `json:"lst"`
	AggregationURI string `json:"aggregation_uri,omitempty"`
}

type tokenClaims struct {
	jwt.RegisteredClaims
	TTL        int64           `json:"ttl,omitempty"`
	StatusList statusListClaim `json:"status_list"`
}

// SignJWT подписывает токен ключом P-256 (ES256) и возвращает компактную сериализацию.
// Подпись детерминирована: одинаковые ключ и claims дают одинаковый токен.
func (t *Token) SignJWT(key *ecdsa.PrivateKey) (string, error) {
	if t.List == nil {
		return "", fmt.Errorf("%w: отсутствует список статусов", ErrInvalidToken)
	}
	lst, err := t.List.Encode()
	if err != nil {
		return "", err
	}

	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  t.Subject,
			Issuer:   t.Issuer,
			IssuedAt: jwt.NewNumericDate(t.IssuedAt),
		},
		TTL: int64(t.TTL / time.Second),
		StatusList: statusListClaim{
			Bits:           t.List.Bits(),
			List:           lst,
			AggregationURI: t.AggregationURI,
		},
	}
	if !t.ExpiresAt.IsZero() {
		claims.ExpiresAt = jwt.NewNumericDate(t.ExpiresAt)
	}

	token := jwt.NewWithClaims(SigningMethodES256Deterministic, claims)
	token.Header["typ"] = TypeJWT

	signed, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("ошибка подписи токена списка статусов: %w", err)
	}
	return signed, nil
}

// ParseJWT разбирает и проверяет токен: подпись, typ, обязательные claims, iat и exp.
func ParseJWT(serialized string, pub *ecdsa.PublicKey) (*Token, error) {
	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(serialized, claims, func(_ *jwt.Token) (interface{}, error) {
		return pub, nil
	}, jwt.WithValidMethods([]string{"ES256", "ES384", "ES512"}), jwt.WithIssuedAt())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if typ, _ := token.Header["typ"].(string); typ != TypeJWT {
		return nil, fmt.Errorf("%w: неверный typ %q", ErrInvalidToken, token.Header["typ"])
	}
	if claims.Issuer == "" || claims.Subject == "" || claims.IssuedAt == nil {
		return nil, fmt.Errorf("%w: отсутствуют обязательные claims", ErrInvalidToken)
	}

	list, err := Decode(claims.StatusList.Bits, claims.StatusList.List)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	result := &Token{
		Subject:        claims.Subject,
		Issuer:         claims.Issuer,
		IssuedAt:       claims.IssuedAt.Time,
		TTL:            time.Duration(claims.TTL) * time.Second,
		AggregationURI: claims.StatusList.AggregationURI,
		List:           list,
	}
	if claims.ExpiresAt != nil {
		result.ExpiresAt = claims.ExpiresAt.Time
	}
	return result, nil
}

// ErrInvalidToken возвращается для некорректного или непроверенного токена.
var ErrInvalidToken = errors.New("некорректный токен списка статусов")
