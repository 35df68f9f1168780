package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rollcall/go-rollcall-server/metrics"
	"github.com/rollcall/go-rollcall-server/services"
	"github.com/rollcall/go-rollcall-server/types"
)

type SessionApi struct {
	sessionService *services.SessionService
	validate       *validator.Validate
}

func NewSessionApi(sessionService *services.SessionService) *SessionApi {
	return &SessionApi{
		sessionService: sessionService,
		validate:       validator.New(),
	}
}

// Create attendance session
// @Summary Create an attendance session
// @Description Opens a check-in window anchored at the given coordinates and returns its token
// @Tags Sessions
// @Param session body types.InputSession true "session input"
// @Success 201 {object} types.AttendanceSession
// @Failure 400 {object} api.ApiError "Invalid or missing input parameters"
// @Failure 401 {object} api.ApiError "Not authorized"
// @Failure 429 {object} api.ApiError "rate limit exceeded"
// @Failure 500 {object} api.ApiError "Internal server error"
// @Accept json
// @Produce json
// @Security Bearer
// @Router /api/v1/sessions [post]
func (sa *SessionApi) CreateSession(c *gin.Context) {
	userID := c.GetString("userID")
	if userID == "" {
		ApiErrorf(c, http.StatusUnauthorized, "not authorized")
		return
	}

	var input types.InputSession
	if err := c.ShouldBindJSON(&input); err != nil {
		ApiErrorf(c, http.StatusBadRequest, "invalid session input")
		return
	}
	if err := sa.validate.Struct(input); err != nil {
		msg := ValidatorErrorToUser(err.(validator.ValidationErrors))
		ApiErrorf(c, http.StatusBadRequest, msg)
		return
	}

	session, err := sa.sessionService.Create(&input, userID)
	if err != nil {
		ApiErrorf(c, http.StatusInternalServerError, "failed to create session")
		return
	}
	metrics.SessionsCreatedMetricsCount.Inc()

	c.JSON(http.StatusCreated, session)
}

// Get session by token
// @Summary Get an attendance session by its token
// @Description Returns the session for a check-in token, expired or not
// @Tags Sessions
// @Param token path string true "session token"
// @Success 200 {object} types.AttendanceSession
// @Failure 401 {object} api.ApiError "Not authorized"
// @Failure 404 {object} api.ApiError "Session not found"
// @Failure 429 {object} api.ApiError "rate limit exceeded"
// @Failure 500 {object} api.ApiError "Internal server error"
// @Accept json
// @Produce json
// @Security Bearer
// @Router /api/v1/sessions/{token} [get]
func (sa *SessionApi) GetSession(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		ApiErrorf(c, http.StatusBadRequest, "session token is required")
		return
	}

	session, err := sa.sessionService.GetByToken(token)
	if err != nil {
		if err == types.ErrNotFound {
			ApiErrorf(c, http.StatusNotFound, "session not found")
		} else {
			ApiErrorf(c, http.StatusInternalServerError, "failed to retrieve session")
		}
		return
	}
	c.JSON(http.StatusOK, session)
}
