package restriction

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"accounts-service/internal/web"

	"github.com/gin-gonic/gin"
)

const siteVerifyURL = "https://www.google.com/recaptcha/api/siteverify"

// RecaptchaSettings hold the reCAPTCHA key pair.
type RecaptchaSettings struct {
	// PublicKey is the site key, advertised to clients.
	PublicKey string

	// PrivateKey is the secret key used for verification.
	PrivateKey string
}

// Recaptcha validates the recaptchaResponse field of the request body
// against Google's verification endpoint. Nil settings or an incomplete
// key pair disables the middleware.
func Recaptcha(settings *RecaptchaSettings) gin.HandlerFunc {
	if settings == nil || settings.PublicKey == "" || settings.PrivateKey == "" {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			web.Error(c, "reCAPTCHA response not included")
			c.Abort()
			return
		}
		// downstream handlers bind the body again
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		var payload struct {
			RecaptchaResponse string `json:"recaptchaResponse"`
		}
		if err := json.Unmarshal(body, &payload); err != nil || payload.RecaptchaResponse == "" {
			web.Error(c, "reCAPTCHA response not included")
			c.Abort()
			return
		}

		if !verify(c, settings.PrivateKey, payload.RecaptchaResponse) {
			web.Error(c, "Failed verifying reCAPTCHA")
			c.Abort()
			return
		}
		c.Next()
	}
}

func verify(c *gin.Context, secret, response string) bool {
	resp, err := http.PostForm(siteVerifyURL, url.Values{
		"secret":   {secret},
		"response": {response},
		"remoteip": {c.ClientIP()},
	})
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	var result struct {
		Success bool `json:"success"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false
	}
	return result.Success
}
