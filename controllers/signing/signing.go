package signing

import (
	"fmt"
	"path/filepath"
	"time"

	"property-sales/domainerr"
	"property-sales/logger"
	"property-sales/services/notify"
	signingService "property-sales/services/signing"
	"property-sales/types"
	signingTypes "property-sales/types/signing"
	"property-sales/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

// SigningController handles signing link HTTP requests. Submit and Download
// are public routes authenticated solely by the token capability.
type SigningController struct {
	DB       *gorm.DB
	Logger   *logger.AsyncLogger
	Manager  *signingService.Manager
	Notifier notify.Notifier
}

// NewSigningController creates a new signing controller
func NewSigningController(db *gorm.DB, asyncLogger *logger.AsyncLogger, manager *signingService.Manager, notifier notify.Notifier) *SigningController {
	return &SigningController{
		DB:       db,
		Logger:   asyncLogger,
		Manager:  manager,
		Notifier: notifier,
	}
}

func domainError(c *fiber.Ctx, err error) error {
	status := domainerr.HTTPStatus(err)
	if status == fiber.StatusInternalServerError {
		logger.Error("Signing operation failed", err)
	}
	return c.Status(status).JSON(types.ApiResponse{
		Status:  status,
		Message: err.Error(),
		Data:    nil,
	})
}

func usernameFromClaims(c *fiber.Ctx) string {
	claims, ok := c.Locals("user").(map[string]interface{})
	if !ok {
		if mc, ok := c.Locals("user").(jwt.MapClaims); ok {
			claims = mc
		} else {
			return ""
		}
	}
	username, _ := claims["username"].(string)
	return username
}

// Issue creates signing links for a document's recipients and mails each one
// their personal link. The plaintext token never appears in the response.
func (sc *SigningController) Issue(c *fiber.Ctx) error {
	var req signingTypes.IssueRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
			Data:    nil,
		})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: err.Error(),
			Data:    nil,
		})
	}

	recipients := make([]signingService.Recipient, 0, len(req.Recipients))
	for _, r := range req.Recipients {
		recipients = append(recipients, signingService.Recipient{Name: r.Name, Email: r.Email})
	}

	var expiresAt *time.Time
	if req.ExpiresInHours > 0 {
		t := time.Now().Add(time.Duration(req.ExpiresInHours) * time.Hour)
		expiresAt = &t
	}

	issued, err := sc.Manager.Issue(signingService.IssueInput{
		RefType:      req.RefType,
		RefID:        req.RefID,
		DocumentType: req.RefType,
		Recipients:   recipients,
		ExpiresAt:    expiresAt,
		CreatedBy:    usernameFromClaims(c),
	})
	if err != nil {
		return domainError(c, err)
	}

	links := make([]interface{}, 0, len(issued))
	for _, il := range issued {
		sc.Notifier.SendMail(
			[]string{il.Link.RecipientEmail},
			"Document ready for your signature",
			notify.EmailTemplate("Signature Requested",
				fmt.Sprintf(`<p>Dear %s,</p><p>A document is awaiting your signature.</p><a class="btn" href="%s">Review and Sign</a>`,
					il.Link.RecipientName, il.URL)),
		)
		links = append(links, il.Link)
	}

	logger.Info(fmt.Sprintf("Issued %d signing link(s) for %s %d", len(issued), req.RefType, req.RefID))
	return c.Status(fiber.StatusCreated).JSON(types.ApiResponse{
		Status:  fiber.StatusCreated,
		Message: "Signing links issued",
		Data:    links,
	})
}

// Submit consumes a signing token, recording the signer's IP and user agent.
func (sc *SigningController) Submit(c *fiber.Ctx) error {
	token := c.Params("token")
	if token == "" {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "missing token",
			Data:    nil,
		})
	}

	link, err := sc.Manager.ConsumeOnSubmit(token, c.IP(), c.Get("User-Agent"))
	if err != nil {
		return domainError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Signature recorded",
		Data:    link,
	})
}

// Download streams the document behind a token. The variant query selects
// latest (default), original or signed.
func (sc *SigningController) Download(c *fiber.Ctx) error {
	token := c.Params("token")
	if token == "" {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "missing token",
			Data:    nil,
		})
	}
	variant := c.Query("variant", "latest")

	data, path, err := sc.Manager.Download(token, variant)
	if err != nil {
		return domainError(c, err)
	}

	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	return c.Send(data)
}
