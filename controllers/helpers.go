package controllers

import (
	"errors"
	"strconv"

	"studio-site-backend/utils"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

func parsePagination(c fiber.Ctx) (page, limit int) {
	page, _ = strconv.Atoi(c.Query("page", "1"))
	limit, _ = strconv.Atoi(c.Query("limit", strconv.Itoa(defaultPageLimit)))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit
}

// slugError maps a slug resolution failure to its HTTP status.
func slugError(c fiber.Ctx, log *zap.Logger, message string, err error) error {
	switch {
	case errors.Is(err, utils.ErrEmptySlug):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(utils.NewErrorResponse("Title must contain at least one letter or digit", err))
	case errors.Is(err, utils.ErrSlugSpaceExhausted):
		log.Warn("slug space exhausted", zap.Error(err))
		return c.Status(fiber.StatusConflict).JSON(utils.NewErrorResponse("No free slug available for this title", err))
	default:
		log.Error("slug lookup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(utils.NewErrorResponse(message, err))
	}
}

// writeError maps a failed insert or update. A duplicate key means another
// writer took the resolved slug between the existence check and the write.
func writeError(c fiber.Ctx, log *zap.Logger, message string, err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		log.Warn("slug taken concurrently", zap.Error(err))
		return c.Status(fiber.StatusConflict).JSON(utils.NewErrorResponse("Slug already taken, please retry", err))
	}
	log.Error(message, zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(utils.NewErrorResponse(message, err))
}
