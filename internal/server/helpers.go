package server

import (
	"errors"
	"strings"
	"unicode"

	"feedhub/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten means a helper already sent the error response. The
// handler must return nil so the fiber ErrorHandler leaves it alone:
//
//	id, err := parseID(c, "id")
//	if err != nil {
//		return nil
//	}
var errResponseWritten = errors.New("response already written")

const maxPaginationLimit = 100

// Pagination is a validated ?limit=&offset= pair.
type Pagination struct {
	Limit  int
	Offset int
}

// parsePagination reads limit and offset. A missing, invalid or non-positive
// limit becomes defaultLimit, larger limits are capped at maxPaginationLimit
// and negative offsets become 0.
func parsePagination(c *fiber.Ctx, defaultLimit int) Pagination {
	p := Pagination{
		Limit:  c.QueryInt("limit", defaultLimit),
		Offset: max(c.QueryInt("offset", 0), 0),
	}
	if p.Limit <= 0 {
		p.Limit = defaultLimit
	}
	p.Limit = min(p.Limit, maxPaginationLimit)
	return p
}

// parseID reads a positive integer route parameter. Anything else is answered
// with 400 KEY_ERROR.
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err == nil && id > 0 {
		return uint(id), nil
	}
	_ = models.RespondWithError(c, fiber.StatusBadRequest, models.NewKeyError("Invalid "+humanizeParam(param)))
	return 0, errResponseWritten
}

// currentUserID is the viewer set by the auth middleware, 0 when anonymous.
func currentUserID(c *fiber.Ctx) uint {
	id, _ := c.Locals("userID").(uint)
	return id
}

// parseBody decodes the JSON body into out or answers 400 INVALID_INPUT.
func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest, models.NewInvalidInputError("Invalid request body"))
		return errResponseWritten
	}
	return nil
}

// humanizeParam turns a route parameter into the label used in error
// messages: "id" is "ID", "feedCommentId" is "feed comment ID". Names that
// do not end in Id are returned unchanged.
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	stem, ok := strings.CutSuffix(param, "Id")
	if !ok || stem == "" {
		return param
	}

	var b strings.Builder
	for i, r := range stem {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte(' ')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	b.WriteString(" ID")
	return b.String()
}
