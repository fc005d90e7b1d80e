package gateway

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAppSecret = "app-secret"

func signBody(body []byte) string {
	mac := hmac.New(sha1.New, []byte(testAppSecret))
	mac.Write(body)
	return "sha1=" + hex.EncodeToString(mac.Sum(nil))
}

func newSignedRouter() (*gin.Engine, *[]byte) {
	gin.SetMode(gin.TestMode)

	var seen []byte
	router := gin.New()
	router.POST("/webhook", SignatureMiddleware(testAppSecret), func(c *gin.Context) {
		body, _ := io.ReadAll(c.Request.Body)
		seen = body
		c.Status(http.StatusOK)
	})
	return router, &seen
}

func TestSignatureMiddleware(t *testing.T) {
	body := []byte(`{"object":"page","entry":[]}`)

	tests := []struct {
		name           string
		signature      string
		expectedStatus int
	}{
		{"valid_signature", signBody(body), http.StatusOK},
		{"missing_signature", "", http.StatusForbidden},
		{"tampered_signature", "sha1=" + hex.EncodeToString(bytes.Repeat([]byte{0xab}, 20)), http.StatusForbidden},
		{"unsupported_method", "sha256=deadbeef", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := newSignedRouter()

			w := httptest.NewRecorder()
			req := httptest.NewRequest("POST", "/webhook", bytes.NewReader(body))
			if tt.signature != "" {
				req.Header.Set("X-Hub-Signature", tt.signature)
			}
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

// The middleware consumes the body to verify it; the handler must still be
// able to read it afterwards.
func TestSignatureMiddleware_BodyIsReplayed(t *testing.T) {
	body := []byte(`{"object":"page","entry":[]}`)
	router, seen := newSignedRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/webhook", bytes.NewReader(body))
	req.Header.Set("X-Hub-Signature", signBody(body))
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, body, *seen)
}

func TestSignatureMiddleware_TamperedBody(t *testing.T) {
	original := []byte(`{"object":"page","entry":[]}`)
	tampered := []byte(`{"object":"page","entry":[{}]}`)
	router, _ := newSignedRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/webhook", bytes.NewReader(tampered))
	req.Header.Set("X-Hub-Signature", signBody(original))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}
