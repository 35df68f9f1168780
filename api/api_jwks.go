package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/rollcall/go-rollcall-server/global"
)

type JwksApi struct {
}

func NewJwksApi() *JwksApi {
	return &JwksApi{}
}

// Server JWKS
// @Summary Server signing keys in JWKS format
// @Description Publishes the Ed25519 public key access tokens are signed with
// @Tags Well Known
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} api.ApiError "Internal server error"
// @Produce json
// @Router /.well-known/jwks.json [get]
func (ja *JwksApi) Jwks(c *gin.Context) {
	key, err := jwk.FromRaw(global.PublicKey)
	if err != nil {
		ApiErrorf(c, http.StatusInternalServerError, "failed to encode server key")
		return
	}
	key.Set(jwk.KeyIDKey, global.Conf.Rollcall.ServerDomain)
	key.Set(jwk.KeyUsageKey, "sig")
	key.Set(jwk.AlgorithmKey, "EdDSA")

	c.JSON(http.StatusOK, gin.H{"keys": []jwk.Key{key}})
}
