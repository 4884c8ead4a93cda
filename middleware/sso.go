package middleware

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"

	"property-sales/types"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// FetchPublicKey fetches the SSO public key from the given URL.
func FetchPublicKey(url string) (*rsa.PublicKey, error) {
	resp, err := http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch public key: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	// The SSO endpoint returns a JSON object with a "key" field.
	keyResponse := struct {
		Key string `json:"key"`
	}{}

	err = json.Unmarshal(body, &keyResponse)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal public key response: %w", err)
	}

	// Parse the PEM-encoded public key
	block, _ := pem.Decode([]byte(keyResponse.Key))
	if block == nil || block.Type != "PUBLIC KEY" {
		return nil, fmt.Errorf("failed to decode PEM block containing public key")
	}

	pubKey, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}

	rsaPubKey, ok := pubKey.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("not an RSA public key")
	}

	return rsaPubKey, nil
}

// VerifyJWT verifies a JWT token using the fetched RSA public key.
func VerifyJWT(tokenString string) (jwt.MapClaims, error) {
	publicKey := initJWT()
	if publicKey == nil {
		return nil, fmt.Errorf("failed to get public key")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Ensure that the signing method is RSA
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return publicKey, nil
	})

	if err != nil {
		log.Printf("Failed to parse JWT: %v", err)
		return nil, fmt.Errorf("failed to parse JWT: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid JWT token")
}

func initJWT() *rsa.PublicKey {
	publicKeyURL := os.Getenv("PUBLIC_KEY_URL")

	publicKey, err := FetchPublicKey(publicKeyURL)
	if err != nil {
		return nil
	}

	return publicKey
}

func hasPermission(jwtToken string, requiredPermissions []string) (map[string]interface{}, bool) {
	claims, err := VerifyJWT(jwtToken)
	if err != nil {
		log.Printf("JWT verification failed: %v", err)
		return nil, false
	}

	// If "any" is passed, just verify the token without checking specific permissions
	for _, requiredPerm := range requiredPermissions {
		if requiredPerm == "any" {
			return claims, true
		}
	}

	// Extract user permissions from the JWT claims
	userPermissions, ok := claims["permissions"].([]interface{})
	if !ok {
		return claims, false // No permissions found
	}

	// Convert user permissions to a map for quick lookup
	permissionSet := make(map[string]bool)
	for _, p := range userPermissions {
		if perm, ok := p.(string); ok {
			permissionSet[perm] = true
		}
	}

	// Check if the user has any of the required permissions
	for _, requiredPerm := range requiredPermissions {
		if permissionSet[requiredPerm] {
			return claims, true
		}
	}

	return claims, false
}

// IsAuthenticated is a middleware that checks for a valid JWT token
func IsAuthenticated(requiredPermissions []string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		var token string

		if authHeader != "" {
			// Validate Bearer Token
			tokenParts := strings.Split(authHeader, " ")
			if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
				return c.Status(401).JSON(fiber.Map{
					"status": "error",
					"error":  "Invalid authorization header format",
				})
			}
			token = tokenParts[1]
		} else {
			// Try to get token from cookie as fallback
			token = c.Cookies("access")
			if token == "" {
				return c.Status(401).JSON(fiber.Map{
					"status": "error",
					"error":  "Authorization token missing",
				})
			}
		}

		decodedClaims, hasAccess := hasPermission(token, requiredPermissions)
		if !hasAccess {
			return c.Status(403).JSON(fiber.Map{"status": "error", "error": "Insufficient permissions"})
		}

		if decodedClaims["username"] == "" {
			return c.Status(http.StatusUnauthorized).JSON(types.ApiResponse{Message: "Session expired. Login again.", Status: fiber.StatusBadRequest})
		}

		// Attach claims to context for downstream handlers
		c.Locals("user", decodedClaims)

		return c.Next()
	}
}
