package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/fieldworks/artifact-capture/http/controller"
	middlewares "github.com/fieldworks/artifact-capture/http/middleware"
)

func SetupRouter(ctrl *controller.Controller) *gin.Engine {
	r := gin.Default()
	middles, err := middlewares.NewMiddlewares(ctrl)
	if err != nil {
		panic(err)
	}

	r.Use(middles.CORSMiddleware)

	// derived images and sidecars are served straight from the content dir
	r.Static("/uploads", ctrl.Config.EnvConfig.Capture.UploadDir)

	apiRoutes := r.Group("/api/v1")
	{
		apiRoutes.POST("/auth/login", ctrl.Login)

		captureRoutes := apiRoutes.Group("/capture")
		{
			captureRoutes.Use(middles.SessionMiddleware)

			captureRoutes.GET("/types", ctrl.ListTypes)

			captureRoutes.POST("/:otype/submit", ctrl.Submit)
			captureRoutes.POST("/:otype/exists", ctrl.Exists)

			captureRoutes.GET("/:otype/records", ctrl.ListRecords)
			captureRoutes.GET("/:otype/records/:id", ctrl.GetRecord)
			captureRoutes.PUT("/:otype/records/:id", ctrl.UpdateRecord)
			captureRoutes.POST("/:otype/records/:id/images", ctrl.AttachToRecord)

			captureRoutes.GET("/:otype/export/csv", ctrl.ExportCSV)
			captureRoutes.GET("/:otype/export/geojson", ctrl.ExportGeoJSON)

			// destructive and bulk routes need the admin token
			adminRoutes := captureRoutes.Group("")
			{
				adminRoutes.Use(middles.AuthMiddleware)
				adminRoutes.DELETE("/:otype/records/:id", ctrl.DeleteRecord)
				adminRoutes.DELETE("/:otype/records/:id/images/:idx", ctrl.DetachImage)
				adminRoutes.POST("/:otype/import/csv", ctrl.ImportCSV)
			}
		}
	}
	return r
}
