package middleware

import (
	"property-sales/constants"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// Permission helper functions to work with the SSO middleware

// RequirePermissions is a helper function that creates a middleware with specific permissions
func RequirePermissions(permissions ...string) fiber.Handler {
	return IsAuthenticated(permissions)
}

// RequireAnyPermission allows access if user has any of the specified permissions
func RequireAnyPermission(permissions ...string) fiber.Handler {
	allPerms := append(permissions, constants.PermAny)
	return IsAuthenticated(allPerms)
}

// RequireAuthentication only requires valid authentication without specific permissions
func RequireAuthentication() fiber.Handler {
	return IsAuthenticated([]string{constants.PermAny})
}

// ClaimsFromContext returns the decoded JWT claims attached by IsAuthenticated.
func ClaimsFromContext(c *fiber.Ctx) (jwt.MapClaims, bool) {
	claims, ok := c.Locals("user").(map[string]interface{})
	if ok {
		return jwt.MapClaims(claims), true
	}
	mapClaims, ok := c.Locals("user").(jwt.MapClaims)
	return mapClaims, ok
}

// ClaimString extracts a string claim, empty when absent.
func ClaimString(claims jwt.MapClaims, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}

// CheckPermissionInController checks if user has a specific permission within a controller
func CheckPermissionInController(c *fiber.Ctx, requiredPermission string) bool {
	claims, ok := ClaimsFromContext(c)
	if !ok {
		return false
	}
	return extractUserPermissionsFromClaims(claims)[requiredPermission]
}

// GetUserPermissions returns all user permissions from context
func GetUserPermissions(c *fiber.Ctx) map[string]bool {
	claims, ok := ClaimsFromContext(c)
	if !ok {
		return make(map[string]bool)
	}
	return extractUserPermissionsFromClaims(claims)
}

func extractUserPermissionsFromClaims(claims jwt.MapClaims) map[string]bool {
	permissionSet := make(map[string]bool)

	userPermissions, ok := claims["permissions"].([]interface{})
	if !ok {
		return permissionSet
	}

	for _, p := range userPermissions {
		if perm, ok := p.(string); ok {
			permissionSet[perm] = true
		}
	}

	return permissionSet
}
