package api

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rollcall/go-rollcall-server/api/interceptors"
	"github.com/rollcall/go-rollcall-server/global"
	"github.com/rollcall/go-rollcall-server/services"
	"github.com/rollcall/go-rollcall-server/types"
	"github.com/rollcall/go-rollcall-server/util"
)

type UserAccountApi struct {
	nonceService     *services.NonceService
	deviceKeyService *services.DeviceKeyService
	validate         *validator.Validate
}

func NewUserAccountApi(nonceService *services.NonceService, deviceKeyService *services.DeviceKeyService) *UserAccountApi {
	return &UserAccountApi{
		nonceService:     nonceService,
		deviceKeyService: deviceKeyService,
		validate:         validator.New(),
	}
}

// Validate signature from the login input against the challenge nonce
func (ua *UserAccountApi) validateSignature(loginInput *types.InputLogin) (bool, error) {
	foundNonce, fnErr := ua.nonceService.GetNonce(loginInput.Nonce)
	if fnErr != nil {
		return false, fnErr
	}

	millisecondsNow := time.Now().UTC().UnixMilli() - int64(5*60*1000) // 5 minutes ago
	if foundNonce.Created < millisecondsNow {
		return false, errors.New("nonce expired")
	}

	if !util.IsEd25519PublicKey(loginInput.Ed25519SigningPublicKeyBase64) {
		return false, types.ErrInvalidPublicKey
	}
	signingKeyBytes, _ := base64.StdEncoding.DecodeString(loginInput.Ed25519SigningPublicKeyBase64)

	signatureBytes, sErr := base64.StdEncoding.DecodeString(loginInput.SignatureBase64)
	if sErr != nil {
		return false, types.ErrSignatureInvalid
	}

	// verify signature over the nonce
	isValid := ed25519.Verify(signingKeyBytes, []byte(foundNonce.Nonce), signatureBytes)

	// delete nonce from database (don't fail if nonce not found)
	ua.nonceService.DeleteNonce(foundNonce.Nonce)

	return isValid, nil
}

// Login and Registration challenge nonce
// @Summary Login and Registration challenge nonce
// @Description Returns a nonce which client needs to sign with their private key
// @Tags User Account
// @Success 200 {object} types.NonceResponse
// @Failure 429 {object} api.ApiError "rate limit exceeded"
// @Failure 500 {object} api.ApiError "Internal server error"
// @Accept json
// @Produce json
// @Router /api/v1/nonce [get]
func (ua *UserAccountApi) ChallengeNonce(c *gin.Context) {
	// store nonce to the couchdb and expire it after N minutes
	nonce, err := ua.nonceService.CreateNonce()
	if err != nil {
		ApiErrorf(c, http.StatusInternalServerError, "Failed to generate nonce")
		return
	}
	c.JSON(http.StatusOK, &types.NonceResponse{Nonce: nonce.Nonce})
}

// Deletes nonce if it exists
// @Summary Deletes nonce if it exists
// @Description Deletes nonce if it exists
// @Tags User Account
// @Param id path string true "nonce id"
// @Success 200 {object} types.NonceResponse
// @Failure 404 {object} api.ApiError "not found"
// @Failure 429 {object} api.ApiError "rate limit exceeded"
// @Failure 500 {object} api.ApiError "Internal server error"
// @Accept json
// @Produce json
// @Router /api/v1/nonce/{id} [delete]
func (ua *UserAccountApi) DeleteNonce(c *gin.Context) {
	nonceId := c.Param("id")
	if nonceId == "" {
		ApiErrorf(c, http.StatusBadRequest, "nonce id is required")
		return
	}
	nonce, err := ua.nonceService.GetNonce(nonceId)
	if err != nil {
		if err == types.ErrNotFound {
			ApiErrorf(c, http.StatusNotFound, "nonce not found")
		} else {
			ApiErrorf(c, http.StatusInternalServerError, "Failed to retrieve nonce")
		}
		return
	}
	delErr := ua.nonceService.DeleteNonce(nonceId)
	if delErr != nil {
		ApiErrorf(c, http.StatusInternalServerError, "Failed to delete nonce")
		return
	}

	c.JSON(http.StatusOK, &types.NonceResponse{Nonce: nonce.Nonce})
}

// Login method
// @Summary Login with a signed challenge nonce
// @Description Returns a JWS access token when the nonce signature checks out
// @Tags User Account
// @Param login body types.InputLogin true "login input"
// @Success 200 {object} types.JwsToken
// @Failure 401 {object} api.ApiError "Invalid signature"
// @Failure 400 {object} api.ApiError "Invalid or missing input parameters"
// @Failure 429 {object} api.ApiError "rate limit exceeded"
// @Accept json
// @Produce json
// @Router /api/v1/login [post]
func (ua *UserAccountApi) Login(c *gin.Context) {
	var inputLogin types.InputLogin
	if err := c.ShouldBindJSON(&inputLogin); err != nil {
		ApiErrorf(c, http.StatusBadRequest, "invalid login input")
		return
	}
	if err := ua.validate.Struct(inputLogin); err != nil {
		msg := ValidatorErrorToUser(err.(validator.ValidationErrors))
		ApiErrorf(c, http.StatusBadRequest, msg)
		return
	}

	isValid, err := ua.validateSignature(&inputLogin)
	if err != nil {
		if err == types.ErrNotFound {
			ApiErrorf(c, http.StatusUnauthorized, "challenge nonce not found")
			return
		}
		ApiErrorf(c, http.StatusUnauthorized, "invalid signature")
		return
	}
	if !isValid {
		ApiErrorf(c, http.StatusUnauthorized, "invalid signature")
		return
	}

	// when the user already registered a device key, the login key must match it
	registered, dkErr := ua.deviceKeyService.GetByUserID(inputLogin.UserID)
	if dkErr != nil && dkErr != types.ErrNotFound {
		ApiErrorf(c, http.StatusInternalServerError, "failed to check registered device key")
		return
	}
	if registered != nil && registered.PublicKey != inputLogin.Ed25519SigningPublicKeyBase64 {
		ApiErrorf(c, http.StatusUnauthorized, "signing key does not match the registered device key")
		return
	}

	token, tErr := interceptors.GenerateJWSToken(global.PrivateKey, inputLogin.UserID, inputLogin.Nonce)
	if tErr != nil {
		global.Logger.Log("error", "failed to generate JWS token", "err", tErr.Error())
		ApiErrorf(c, http.StatusInternalServerError, "failed to generate access token")
		return
	}
	c.JSON(http.StatusOK, &types.JwsToken{Token: token})
}
