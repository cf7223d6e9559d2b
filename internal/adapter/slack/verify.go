package slack

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/slack-go/slack"
)

// maxBodyBytes caps request bodies read for signature checks.
const maxBodyBytes = 1 << 20

// VerifySignature rejects requests whose X-Slack-Signature does not match the
// body signed with secret. The body is restored for the next handler.
func VerifySignature(secret string, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
		if err != nil {
			c.AbortWithStatus(http.StatusBadRequest)
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		sv, err := slack.NewSecretsVerifier(c.Request.Header, secret)
		if err != nil {
			log.Warn("slack request rejected", slog.String("path", c.Request.URL.Path), slog.String("error", err.Error()))
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		if _, err := sv.Write(body); err != nil {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		if err := sv.Ensure(); err != nil {
			log.Warn("slack signature mismatch", slog.String("path", c.Request.URL.Path))
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}
