package interceptors

import (
	"crypto/ed25519"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-jose/go-jose/v3"
	"github.com/rollcall/go-rollcall-server/global"
)

const (
	defaultTokenExpiryHours = 30 * 24 // 30 days
)

// JWSMiddleware authenticates requests with a server-issued JWS bearer
// token and stores the subject user id in the gin context as "userID".
func JWSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is missing"})
			return
		}
		token, found := extractBearerToken(auth)
		if !found {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is not a bearer token"})
			return
		}

		// Parse JWS message
		object, err := jose.ParseSigned(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid JWS message"})
			return
		}

		// Verify the signature against the server key
		_, err = object.Verify(global.PublicKey)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Failed to verify JWS message"})
			return
		}

		payload := object.UnsafePayloadWithoutVerification()
		var plMap map[string]interface{}
		uErr := json.Unmarshal(payload, &plMap)
		if uErr != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Failed to parse JWS payload"})
			return
		}
		if exp, ok := plMap["exp"]; ok {
			expFloat, ok := exp.(float64)
			if !ok {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Failed to parse JWS payload"})
				return
			}
			if expFloat < float64(time.Now().Unix()) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "JWS message expired"})
				return
			}
		} else {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Failed to parse JWS payload (exp missing)"})
			return
		}
		sub, ok := plMap["sub"]
		if !ok {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Failed to parse JWS payload (sub missing)"})
			return
		}
		userID, ok := sub.(string)
		if !ok || userID == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Failed to parse JWS payload (sub missing)"})
			return
		}
		c.Set("userID", userID)
		c.Next()
	}
}

// extractBearerToken accepts both "Bearer <jws>" and a bare JWS value
func extractBearerToken(auth string) (string, bool) {
	const prefix = "Bearer "
	if len(auth) > len(prefix) && auth[:len(prefix)] == prefix {
		return auth[len(prefix):], true
	}
	if auth != "" {
		return auth, true
	}
	return "", false
}

// GenerateJWSToken issues an access token for userID signed with the
// server Ed25519 private key. The login nonce travels as jti.
func GenerateJWSToken(serverPrivateKey ed25519.PrivateKey, userID, nonce string) (string, error) {
	expiryHours := global.Conf.Rollcall.TokenExpiryHours
	if expiryHours <= 0 {
		expiryHours = defaultTokenExpiryHours
	}
	pl := map[string]interface{}{
		"iss": global.Conf.Rollcall.ServerDomain,
		"sub": userID,
		"iat": time.Now().Unix(),
		"jti": nonce,
		"exp": time.Now().Add(time.Hour * time.Duration(expiryHours)).Unix(),
		"aud": "rollcall",
	}
	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.EdDSA, Key: serverPrivateKey}, nil)
	if err != nil {
		return "", err
	}

	plBytes, plErr := json.Marshal(pl)
	if plErr != nil {
		return "", plErr
	}
	object, err := signer.Sign(plBytes)
	if err != nil {
		return "", err
	}
	return object.CompactSerialize()
}
