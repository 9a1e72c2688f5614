package controller

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	"github.com/fieldworks/artifact-capture/utils"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login exchanges the admin credentials for a JWT. There is a single admin
// account, configured through the environment; destructive routes require its
// token.
func (ctrl *Controller) Login(c *gin.Context) {
	ctx := c.Request.Context()

	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSON400(c, "Username and password are required")
		return
	}

	admin := ctrl.Config.EnvConfig.Admin
	if admin.Password == "" {
		ctrl.Infra.Logger.WarningWithContextf(ctx, "[Auth] Login attempted but no admin password is configured")
		utils.JSON403(c, "Admin login is not configured")
		return
	}

	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(admin.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(admin.Password)) == 1
	if !userOK || !passOK {
		ctrl.Infra.Logger.WarningWithContextf(ctx, "[Auth] Failed login for %q from %s", req.Username, c.ClientIP())
		utils.JSON401(c, "Invalid credentials")
		return
	}

	token, err := utils.GenerateAdminToken(ctrl.Config.EnvConfig)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Auth] Failed to sign token: %v", err)
		utils.JSON500(c, "Failed to issue token")
		return
	}

	c.SetCookie("access_token", token, ctrl.Config.EnvConfig.JWT.Expire, "/", "", false, true)
	utils.JSON200(c, gin.H{"access_token": token})
}
