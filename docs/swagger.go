// Package docs provides Swagger documentation for the API.
package docs

// @title Callout Services Backend API
// @version 1.0
// @description API for outbound call campaign management: callouts, populations, contacts, participations and phone calls
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url https://www.opencallout.org/support
// @contact.email support@opencallout.org

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
