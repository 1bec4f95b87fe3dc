package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oguzk/studentdesk/internal/app/controllers"
	"github.com/oguzk/studentdesk/internal/app/models"
	"github.com/oguzk/studentdesk/internal/middleware"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	authController *controllers.AuthController,
	studentController *controllers.StudentController,
	authMiddleware *middleware.AuthMiddleware,
) {
	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API version group
	v1 := router.Group("/api/v1")

	// --- Public Auth routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/register", authController.Register)
		auth.POST("/login", authController.Login)
	}

	// --- Authenticated Routes Group ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())
	{
		authenticated.POST("/auth/logout", authController.Logout)
		authenticated.GET("/auth/me", authController.Me)

		// Student routes readable by any authenticated user
		students := authenticated.Group("/students")
		{
			students.GET("", studentController.ListStudents)
			students.GET("/:id", studentController.GetStudent)

			// Write operations require the admin role
			studentsAdminProtected := students.Group("")
			studentsAdminProtected.Use(authMiddleware.RoleRequired(string(models.RoleAdmin)))
			{
				studentsAdminProtected.POST("", studentController.CreateStudent)
				studentsAdminProtected.PATCH("/:id", studentController.UpdateStudent)
				studentsAdminProtected.DELETE("/:id", studentController.DeleteStudent)
			}
		}

		// Dashboard counters, admin only
		statsAdminProtected := authenticated.Group("/stats")
		statsAdminProtected.Use(authMiddleware.RoleRequired(string(models.RoleAdmin)))
		{
			statsAdminProtected.GET("", studentController.GetStats)
		}
	}
}
