package apiroutes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rollcall/go-rollcall-server/api"
	"github.com/rollcall/go-rollcall-server/api/interceptors"
	"github.com/rollcall/go-rollcall-server/global"
	"github.com/rollcall/go-rollcall-server/metrics"
	"github.com/rollcall/go-rollcall-server/repository"
	"github.com/rollcall/go-rollcall-server/services"
	"github.com/rollcall/go-rollcall-server/types"
)

// REST API routes
func ConfigRoutes(router *gin.Engine, dbSelector repository.DBSelector, environment *types.Environment) *gin.Engine {
	// init metrics
	if global.Conf.Prometheus.Enabled {

		metrics.InitMetrics()

		authorized := router.Group("/metrics", gin.BasicAuth(gin.Accounts{
			global.Conf.Prometheus.Username: global.Conf.Prometheus.Password,
		}))

		authorized.GET("", gin.WrapH(promhttp.Handler()))
	}

	// SERVICE definitions
	nonceService := services.NewNonceService(dbSelector)
	deviceKeyService := services.NewDeviceKeyService(dbSelector, environment)
	sessionService := services.NewSessionService(dbSelector)
	attendanceService := services.NewAttendanceService(dbSelector)
	verifier := services.NewProofVerifier(sessionService, deviceKeyService, attendanceService, environment)

	// API definitions
	accountApi := api.NewUserAccountApi(nonceService, deviceKeyService)
	deviceKeyApi := api.NewDeviceKeyApi(deviceKeyService)
	sessionApi := api.NewSessionApi(sessionService)
	attendanceApi := api.NewAttendanceApi(verifier, attendanceService)
	jwksApi := api.NewJwksApi()
	healthApi := api.NewHealthCheckAPI()

	// PUBLIC ROOT API
	rootPublicApi := router.Group("/")
	{
		rootPublicApi.GET(".well-known/jwks.json", jwksApi.Jwks)
		rootPublicApi.GET("api/v1/healthcheck", healthApi.HealthCheck)
	}

	// PUBLIC API
	publicApi := router.Group("/api", metrics.MetricsMiddleware(), interceptors.RateLimitMiddleware())
	{
		publicApi.GET("/v1/nonce", accountApi.ChallengeNonce)
		publicApi.DELETE("/v1/nonce/:id", accountApi.DeleteNonce)
		publicApi.POST("/v1/login", accountApi.Login)
	}

	rootApi := router.Group("/api", metrics.MetricsMiddleware(), interceptors.RateLimitMiddleware(), interceptors.JWSMiddleware())
	{
		rootApi.PUT("/v1/devicekeys", deviceKeyApi.RegisterDeviceKey)
		rootApi.GET("/v1/devicekeys/me", deviceKeyApi.GetMyDeviceKey)
		rootApi.POST("/v1/sessions", sessionApi.CreateSession)
		rootApi.GET("/v1/sessions/:token", sessionApi.GetSession)
		rootApi.POST("/v1/attendance/verify", attendanceApi.VerifyProof)
		rootApi.GET("/v1/attendance/me", attendanceApi.GetMyAttendance)
	}

	return router
}
