package middleware

import (
	"context"
	"net/http"
	"strings"

	"xbit_backend/internal/model"
	"xbit_backend/pkg/resp"
	"xbit_backend/pkg/token"

	"github.com/sirupsen/logrus"
)

type ctxKey struct{}

// Auth Проверяет Bearer токен и кладет сессию кошелька в контекст
func Auth(secretKey []byte, log *logrus.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || raw == "" {
				resp.WriteError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := token.VerifyToken(raw, secretKey)
			if err != nil {
				log.WithError(err).Debug("rejected token")
				resp.WriteError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			session := model.Session{ID: claims.ID, Wallet: strings.ToLower(claims.Wallet)}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}

func WithSession(ctx context.Context, session model.Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, session)
}

func SessionFrom(ctx context.Context) (model.Session, bool) {
	session, ok := ctx.Value(ctxKey{}).(model.Session)
	return session, ok
}
