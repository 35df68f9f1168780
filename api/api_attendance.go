package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rollcall/go-rollcall-server/services"
	"github.com/rollcall/go-rollcall-server/types"
)

type AttendanceApi struct {
	verifier          *services.ProofVerifier
	attendanceService *services.AttendanceService
}

func NewAttendanceApi(verifier *services.ProofVerifier, attendanceService *services.AttendanceService) *AttendanceApi {
	return &AttendanceApi{
		verifier:          verifier,
		attendanceService: attendanceService,
	}
}

// Verify attendance proof
// @Summary Verify a signed attendance proof and commit the record
// @Description Checks the proof against the session window, geofence and the caller's registered device key
// @Tags Attendance
// @Param proof body types.InputProof true "attendance proof"
// @Success 200 {object} types.OutputVerified
// @Failure 400 {object} api.ApiError "Rejected proof (bad payload, unknown or expired session, out of range, no registered key, bad signature)"
// @Failure 401 {object} api.ApiError "Not authorized"
// @Failure 429 {object} api.ApiError "rate limit exceeded"
// @Failure 500 {object} api.ApiError "Internal server error"
// @Accept json
// @Produce json
// @Security Bearer
// @Router /api/v1/attendance/verify [post]
func (aa *AttendanceApi) VerifyProof(c *gin.Context) {
	userID := c.GetString("userID")
	if userID == "" {
		ApiErrorf(c, http.StatusUnauthorized, "not authorized")
		return
	}

	var input types.InputProof
	if err := c.ShouldBindJSON(&input); err != nil {
		ApiErrorf(c, http.StatusBadRequest, "invalid proof payload")
		return
	}

	record, err := aa.verifier.Verify(userID, &input)
	if err != nil {
		code, message := verifyErrorToStatus(err)
		ApiErrorf(c, code, message)
		return
	}

	c.JSON(http.StatusOK, &types.OutputVerified{
		IsOK:           true,
		RecordID:       record.ID,
		DistanceMeters: record.Metadata.DistanceMeters,
	})
}

// every rejection stage maps to a client error with a stable message
func verifyErrorToStatus(err error) (int, string) {
	switch {
	case errors.Is(err, types.ErrBadRequest):
		return http.StatusBadRequest, "invalid proof payload"
	case errors.Is(err, types.ErrSessionNotFound):
		return http.StatusBadRequest, "session not found"
	case errors.Is(err, types.ErrSessionExpired):
		return http.StatusBadRequest, "session expired"
	case errors.Is(err, types.ErrOutOfRange):
		return http.StatusBadRequest, "location out of range"
	case errors.Is(err, types.ErrKeyNotRegistered):
		return http.StatusBadRequest, "no device key registered"
	case errors.Is(err, types.ErrSignatureInvalid):
		return http.StatusBadRequest, "invalid signature"
	default:
		return http.StatusInternalServerError, "failed to verify proof"
	}
}

// List my attendance records
// @Summary List the calling user's attendance records
// @Description Returns the most recent attendance records first
// @Tags Attendance
// @Param limit query int false "maximum number of records (default 25)"
// @Success 200 {object} types.OutputAttendanceList
// @Failure 401 {object} api.ApiError "Not authorized"
// @Failure 429 {object} api.ApiError "rate limit exceeded"
// @Failure 500 {object} api.ApiError "Internal server error"
// @Accept json
// @Produce json
// @Security Bearer
// @Router /api/v1/attendance/me [get]
func (aa *AttendanceApi) GetMyAttendance(c *gin.Context) {
	userID := c.GetString("userID")
	if userID == "" {
		ApiErrorf(c, http.StatusUnauthorized, "not authorized")
		return
	}

	limit := 25
	if l := c.Query("limit"); l != "" {
		parsed, pErr := strconv.Atoi(l)
		if pErr != nil || parsed <= 0 || parsed > 200 {
			ApiErrorf(c, http.StatusBadRequest, "limit must be a number between 1 and 200")
			return
		}
		limit = parsed
	}

	records, err := aa.attendanceService.ListByUser(userID, limit)
	if err != nil {
		ApiErrorf(c, http.StatusInternalServerError, "failed to list attendance records")
		return
	}
	c.JSON(http.StatusOK, &types.OutputAttendanceList{Records: records})
}
