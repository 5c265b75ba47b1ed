package router

import (
	"time"

	"github.com/opencallout/callout-services-backend/internal/handlers"
	"github.com/opencallout/callout-services-backend/internal/middleware"
	"github.com/opencallout/callout-services-backend/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// SetupRouter configures the Gin router with the callout API routes
func SetupRouter(db *gorm.DB, dispatcher *services.DispatcherService, notifier services.PopulationNotifier) *gin.Engine {
	// Set Gin mode
	gin.SetMode(gin.ReleaseMode)

	// Create a new router
	r := gin.New()

	// Use middleware
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())

	// Configure CORS
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Create handlers with services
	calloutHandler := handlers.NewCalloutHandler(db)
	populationHandler := handlers.NewPopulationHandler(db, notifier)
	contactHandler := handlers.NewContactHandler(db)
	participationHandler := handlers.NewParticipationHandler(db)
	phoneCallHandler := handlers.NewPhoneCallHandler(db, dispatcher)
	remoteEventHandler := handlers.NewRemoteEventHandler(db)

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API v1 routes
	api := r.Group("/api/v1")
	{
		// Health check
		api.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status": "ok",
				"time":   time.Now().Format(time.RFC3339),
			})
		})

		// Callout routes
		callouts := api.Group("/callouts")
		{
			callouts.POST("", calloutHandler.CreateCallout)
			callouts.GET("", calloutHandler.GetCallouts)
			callouts.GET("/:id", calloutHandler.GetCalloutByID)
			callouts.PATCH("/:id", calloutHandler.UpdateCallout)
			callouts.DELETE("/:id", calloutHandler.DeleteCallout)
			callouts.POST("/:id/populations", populationHandler.CreatePopulation)
			callouts.GET("/:id/populations", populationHandler.GetPopulationsByCallout)
			callouts.POST("/:id/participations", participationHandler.CreateParticipation)
			callouts.GET("/:id/participations", participationHandler.GetParticipationsByCallout)
		}

		// Population routes
		populations := api.Group("/populations")
		{
			populations.GET("", populationHandler.FilterPopulations)
			populations.GET("/:id", populationHandler.GetPopulationByID)
			populations.GET("/:id/preview", populationHandler.PreviewPopulation)
			populations.POST("/:id/events", populationHandler.CreatePopulationEvent)
			populations.PATCH("/:id", populationHandler.UpdatePopulation)
			populations.DELETE("/:id", populationHandler.DeletePopulation)
		}

		// Contact routes
		contacts := api.Group("/contacts")
		{
			contacts.POST("", contactHandler.CreateContact)
			contacts.GET("", contactHandler.FilterContacts)
			contacts.POST("/import", contactHandler.ImportContacts)
			contacts.GET("/:id", contactHandler.GetContactByID)
			contacts.PATCH("/:id", contactHandler.UpdateContact)
			contacts.DELETE("/:id", contactHandler.DeleteContact)
			contacts.POST("/:id/phone_calls", phoneCallHandler.DispatchContactCall)
		}

		// Participation routes
		participations := api.Group("/participations")
		{
			participations.GET("/:id", participationHandler.GetParticipationByID)
			participations.DELETE("/:id", participationHandler.DeleteParticipation)
			participations.POST("/:id/phone_calls", phoneCallHandler.DispatchParticipationCall)
			participations.GET("/:id/phone_calls", phoneCallHandler.GetCallsByParticipation)
		}

		// Phone call routes
		phoneCalls := api.Group("/phone_calls")
		{
			phoneCalls.GET("/:id", phoneCallHandler.GetPhoneCallByID)
			phoneCalls.GET("/:id/events", phoneCallHandler.GetPhoneCallEvents)
		}

		// Provider webhook routes
		provider := api.Group("/provider")
		{
			provider.POST("/call_status", remoteEventHandler.HandleCallStatus)
		}
	}

	return r
}
