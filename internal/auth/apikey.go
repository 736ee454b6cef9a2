// internal/auth/apikey.go
package auth

import (
	"crypto/subtle"
	"net/http"
)

const headerAPIKey = "X-API-Key"

// KeyChecker guards operator endpoints with static API keys.
type KeyChecker struct {
	keys [][]byte
}

// NewKeyChecker ignores empty keys. With no keys, every request passes.
func NewKeyChecker(keys []string) *KeyChecker {
	kc := &KeyChecker{}
	for _, k := range keys {
		if k != "" {
			kc.keys = append(kc.keys, []byte(k))
		}
	}
	return kc
}

func (kc *KeyChecker) Enabled() bool { return len(kc.keys) > 0 }

// Valid checks apiKey against every configured key in constant time.
func (kc *KeyChecker) Valid(apiKey string) bool {
	ok := 0
	for _, k := range kc.keys {
		ok |= subtle.ConstantTimeCompare([]byte(apiKey), k)
	}
	return ok == 1
}

// Middleware rejects requests without a valid X-API-Key header.
func (kc *KeyChecker) Middleware(next http.Handler) http.Handler {
	if !kc.Enabled() {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey := r.Header.Get(headerAPIKey)
		if apiKey == "" {
			http.Error(w, "API key required", http.StatusUnauthorized)
			return
		}
		if !kc.Valid(apiKey) {
			http.Error(w, "Invalid API key", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
