// Package router wires the assistant HTTP routes onto a gin engine.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campus-io/study-buddy/internal/assistant/biz"
	"github.com/campus-io/study-buddy/internal/assistant/handler"
	"github.com/campus-io/study-buddy/internal/assistant/middleware"
	"github.com/campus-io/study-buddy/pkg/app"
	"github.com/campus-io/study-buddy/pkg/component/storage"
	jwtopts "github.com/campus-io/study-buddy/pkg/options/jwt"
)

// Handlers groups everything the router needs.
type Handlers struct {
	Chat      *handler.ChatHandler
	Index     *handler.IndexHandler
	Upload    *handler.UploadHandler
	Course    *handler.CourseHandler
	User      *handler.UserHandler
	Analytics *handler.AnalyticsHandler

	// Stats reports runtime counters (worker pools). Optional.
	Stats gin.HandlerFunc
}

// Register builds the gin engine and mounts all routes.
func Register(h *Handlers, users *biz.UserService, jwtOptions *jwtopts.Options, uploads *storage.LocalStore) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), middleware.RequestLogger())

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"version": app.GetVersion(),
		})
	})
	if h.Stats != nil {
		engine.GET("/statsz", h.Stats)
	}

	if uploads != nil {
		engine.Static("/uploads", uploads.Dir())
	}

	v1 := engine.Group("/v1")
	v1.Use(middleware.Session(jwtOptions, users))
	{
		v1.POST("/chat", h.Chat.Chat)

		v1.POST("/users/register", h.User.Register)
		v1.POST("/users/login", h.User.Login)

		me := v1.Group("/users/me", middleware.RequireUser())
		{
			me.GET("", h.User.Profile)
			me.PUT("/preferences", h.User.UpdatePreferences)
			me.GET("/memory", h.User.Memory)
			me.POST("/memory", h.User.UpdateMemory)
		}

		v1.GET("/courses", h.Course.List)
		v1.GET("/courses/:id", h.Course.Get)
		v1.GET("/courses/:id/files", h.Course.ListFiles)

		professor := v1.Group("", middleware.RequireProfessor())
		{
			professor.POST("/courses", h.Course.Create)
			professor.PUT("/courses/:id", h.Course.Update)
			professor.PUT("/courses/:id/visibility", h.Course.SetVisibility)
			professor.DELETE("/courses/:id", h.Course.Delete)
			professor.DELETE("/courses/:id/files/:fileId", h.Course.RemoveFile)

			professor.POST("/files/upload", h.Upload.Upload)
			professor.POST("/index", h.Index.Index)
			professor.DELETE("/index/files/:fileId", h.Index.DeleteFile)

			analytics := professor.Group("/courses/:id/analytics")
			{
				analytics.GET("/engagement", h.Analytics.Engagement)
				analytics.GET("/most-asked", h.Analytics.MostAsked)
				analytics.GET("/frequency", h.Analytics.Frequency)
				analytics.GET("/peak-hours", h.Analytics.PeakHours)
				analytics.GET("/topics", h.Analytics.Topics)
			}
		}
	}

	return engine
}
