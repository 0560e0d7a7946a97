// Package middleware содержит HTTP middleware сервера статистики.
package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// APIKeyAuthenticator проверяет заголовок "Authorization: Bearer <key>".
// Пустой apiKey означает, что защищенные маршруты отключены.
func APIKeyAuthenticator(apiKey string, logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.With(zap.String("component", "auth"))
	expected := []byte(apiKey)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(expected) == 0 {
				log.Warn("Запрос к защищенному маршруту при отключенном API-ключе", zap.String("path", r.URL.Path))
				http.Error(w, "Загрузка статистики отключена", http.StatusForbidden)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				log.Debug("Заголовок Authorization отсутствует")
				http.Error(w, "Требуется аутентификация", http.StatusUnauthorized)
				return
			}

			// Проверяем формат "Bearer token"
			headerParts := strings.Split(authHeader, " ")
			if len(headerParts) != 2 || !strings.EqualFold(headerParts[0], "bearer") {
				log.Debug("Неверный формат заголовка Authorization")
				http.Error(w, "Неверный формат токена", http.StatusUnauthorized)
				return
			}

			if subtle.ConstantTimeCompare([]byte(headerParts[1]), expected) != 1 {
				log.Info("Неверный API-ключ", zap.String("remote", r.RemoteAddr))
				http.Error(w, "Невалидный токен", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
