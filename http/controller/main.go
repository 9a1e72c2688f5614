package controller

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/fieldworks/artifact-capture/config"
	"github.com/fieldworks/artifact-capture/entity"
	"github.com/fieldworks/artifact-capture/infra"
	"github.com/fieldworks/artifact-capture/media"
	"github.com/fieldworks/artifact-capture/repository"
)

type Controller struct {
	Config     *config.Config
	Infra      *infra.Infra
	Repository *repository.Repository
	Processor  *media.Processor
}

func NewController(config *config.Config, infra *infra.Infra, repo *repository.Repository) *Controller {
	if repo == nil {
		panic("Failed to initialize Repository")
	}
	return &Controller{
		Config:     config,
		Infra:      infra,
		Repository: repo,
		Processor: &media.Processor{
			UploadDir:   config.EnvConfig.Capture.UploadDir,
			MaxDim:      config.EnvConfig.Capture.MaxDim,
			ThumbDim:    config.EnvConfig.Capture.ThumbDim,
			JpegQuality: config.EnvConfig.Capture.JpegQuality,
			WebpQuality: config.EnvConfig.Capture.WebpQuality,
		},
	}
}

// schemaFor resolves the :otype path parameter to its schema, or nil when the
// catalog does not declare it.
func (ctrl *Controller) schemaFor(c *gin.Context) *entity.ObjectTypeSchema {
	return ctrl.Config.Schema.Type(c.Param("otype"))
}

// formValues collects the submitted field values from either a multipart or a
// urlencoded body.
func formValues(c *gin.Context) map[string][]string {
	if form, err := c.MultipartForm(); err == nil && form != nil {
		return form.Value
	}
	_ = c.Request.ParseForm()
	return c.Request.PostForm
}

// clientGPS reads the device coordinates the capture form posts alongside the
// photo. Fields left blank stay nil.
func clientGPS(c *gin.Context) entity.GPSFix {
	parse := func(name string) *float64 {
		raw := c.PostForm(name)
		if raw == "" {
			return nil
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil
		}
		return &f
	}
	return entity.GPSFix{
		Lat: parse("gps_lat"),
		Lon: parse("gps_lon"),
		Alt: parse("gps_alt"),
		Acc: parse("gps_acc"),
	}
}

func captureContext(c *gin.Context) entity.CaptureContext {
	return entity.CaptureContext{
		ClientIP:  c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}
