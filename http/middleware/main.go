package middlewares

import (
	"github.com/gin-gonic/gin"

	"github.com/fieldworks/artifact-capture/http/controller"
)

type Middlewares struct {
	CORSMiddleware    gin.HandlerFunc
	AuthMiddleware    gin.HandlerFunc
	SessionMiddleware gin.HandlerFunc
}

func NewMiddlewares(ctrl *controller.Controller) (*Middlewares, error) {
	cors := CORSMiddleware(ctrl.Config.EnvConfig)
	auth := AuthMiddleware(ctrl.Config.EnvConfig)
	session := SessionMiddleware()

	return &Middlewares{
		CORSMiddleware:    cors,
		AuthMiddleware:    auth,
		SessionMiddleware: session,
	}, nil
}
