package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rollcall/go-rollcall-server/metrics"
	"github.com/rollcall/go-rollcall-server/services"
	"github.com/rollcall/go-rollcall-server/types"
	"github.com/rollcall/go-rollcall-server/util"
)

type DeviceKeyApi struct {
	deviceKeyService *services.DeviceKeyService
	validate         *validator.Validate
}

func NewDeviceKeyApi(deviceKeyService *services.DeviceKeyService) *DeviceKeyApi {
	return &DeviceKeyApi{
		deviceKeyService: deviceKeyService,
		validate:         validator.New(),
	}
}

// Register device key
// @Summary Register the calling user's device signing key
// @Description Stores the Ed25519 public key the device will sign attendance proofs with. Re-registering overwrites the previous key.
// @Tags Device Keys
// @Param deviceKey body types.InputDeviceKey true "device key input"
// @Success 200 {object} types.DeviceKey
// @Failure 400 {object} api.ApiError "Invalid or missing input parameters"
// @Failure 401 {object} api.ApiError "Not authorized"
// @Failure 429 {object} api.ApiError "rate limit exceeded"
// @Failure 500 {object} api.ApiError "Internal server error"
// @Accept json
// @Produce json
// @Security Bearer
// @Router /api/v1/devicekeys [put]
func (dk *DeviceKeyApi) RegisterDeviceKey(c *gin.Context) {
	userID := c.GetString("userID")
	if userID == "" {
		ApiErrorf(c, http.StatusUnauthorized, "not authorized")
		return
	}

	var input types.InputDeviceKey
	if err := c.ShouldBindJSON(&input); err != nil {
		ApiErrorf(c, http.StatusBadRequest, "invalid device key input")
		return
	}
	if err := dk.validate.Struct(input); err != nil {
		msg := ValidatorErrorToUser(err.(validator.ValidationErrors))
		ApiErrorf(c, http.StatusBadRequest, msg)
		return
	}
	if !util.IsEd25519PublicKey(input.PublicKey) {
		ApiErrorf(c, http.StatusBadRequest, "publicKey is not a valid Ed25519 public key")
		return
	}

	saved, err := dk.deviceKeyService.Upsert(userID, &input)
	if err != nil {
		ApiErrorf(c, http.StatusInternalServerError, "failed to store device key")
		return
	}
	metrics.DeviceKeysRegisteredMetricsCount.Inc()

	c.JSON(http.StatusOK, saved)
}

// Get the calling user's device key
// @Summary Get the calling user's registered device key
// @Description Returns the currently registered device public key for the authenticated user
// @Tags Device Keys
// @Success 200 {object} types.DeviceKey
// @Failure 401 {object} api.ApiError "Not authorized"
// @Failure 404 {object} api.ApiError "No device key registered"
// @Failure 429 {object} api.ApiError "rate limit exceeded"
// @Failure 500 {object} api.ApiError "Internal server error"
// @Accept json
// @Produce json
// @Security Bearer
// @Router /api/v1/devicekeys/me [get]
func (dk *DeviceKeyApi) GetMyDeviceKey(c *gin.Context) {
	userID := c.GetString("userID")
	if userID == "" {
		ApiErrorf(c, http.StatusUnauthorized, "not authorized")
		return
	}

	key, err := dk.deviceKeyService.GetByUserID(userID)
	if err != nil {
		if err == types.ErrNotFound {
			ApiErrorf(c, http.StatusNotFound, "no device key registered")
		} else {
			ApiErrorf(c, http.StatusInternalServerError, "failed to retrieve device key")
		}
		return
	}
	c.JSON(http.StatusOK, key)
}
