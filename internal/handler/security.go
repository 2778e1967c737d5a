package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/saffron-restaurant/api/internal/domain/auth"
	"github.com/saffron-restaurant/api/pkg/httpmiddleware"
)

// apiKeyHeader carries the admin API key.
const apiKeyHeader = "X-API-Key"

// APIKeyAuth returns a middleware authenticating requests via HMAC-SHA256
// hashed API keys. Keys are stored only as hashes; the raw key is hashed
// with the pepper and looked up, then compared in constant time.
func APIKeyAuth(keys auth.Repository, pepper []byte) httpmiddleware.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(apiKeyHeader)
			if key == "" {
				unauthorized(w)
				return
			}

			mac := hmac.New(sha256.New, pepper)
			mac.Write([]byte(key))
			hash := mac.Sum(nil)

			info, err := keys.FindByHash(r.Context(), hex.EncodeToString(hash))
			if err != nil {
				if !errors.Is(err, auth.ErrKeyNotFound) {
					zctx.From(r.Context()).Error("api key lookup", zap.Error(err))
				}
				unauthorized(w)
				return
			}

			stored, err := hex.DecodeString(info.KeyHash)
			if err != nil || subtle.ConstantTimeCompare(hash, stored) != 1 {
				unauthorized(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"success":false,"message":"unauthorized"}`))
}
