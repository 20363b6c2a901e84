// @title           GrowthLab integration API
// @version         1.0
// @description     Proxy for the GrowthLab platform API used by the embeddable widget and partner sites.
// @BasePath        /api
// @securityDefinitions.apikey BearerToken
// @in              header
// @name            Authorization
// @description     Type "Bearer" followed by a space and your GrowthLab platform token.
package api
