package gateway

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var signatureTracer = otel.Tracer("signature-middleware")

// SignatureMiddleware verifies the X-Hub-Signature header: a hex HMAC-SHA1
// of the raw request body keyed with the app secret. Requests that fail
// verification never reach the webhook handler.
func SignatureMiddleware(appSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, span := signatureTracer.Start(c.Request.Context(), "gateway.verify_signature")
		defer span.End()

		signature := c.GetHeader("X-Hub-Signature")
		if signature == "" {
			span.SetAttributes(attribute.Bool("signature.present", false))
			log.Printf(`{"level":"warn","message":"Missing request signature"}`)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Missing signature"})
			return
		}
		span.SetAttributes(attribute.Bool("signature.present", true))

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			span.RecordError(err)
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		// The handler still needs to parse the body after verification.
		c.Request.Body = io.NopCloser(bytes.NewBuffer(body))

		method, signatureHash, found := strings.Cut(signature, "=")
		if !found || method != "sha1" {
			span.SetAttributes(attribute.Bool("signature.valid", false))
			log.Printf(`{"level":"warn","message":"Unsupported signature method","method":"%s"}`, method)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Invalid signature"})
			return
		}

		mac := hmac.New(sha1.New, []byte(appSecret))
		mac.Write(body)
		expected := hex.EncodeToString(mac.Sum(nil))

		if !hmac.Equal([]byte(signatureHash), []byte(expected)) {
			span.SetAttributes(attribute.Bool("signature.valid", false))
			log.Printf(`{"level":"warn","message":"Request signature mismatch"}`)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Invalid signature"})
			return
		}

		span.SetAttributes(attribute.Bool("signature.valid", true))
		c.Next()
	}
}
