package page

import (
	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	renderer *Renderer
	data     IndexData
}

func NewHandler(r *Renderer, data IndexData) *Handler {
	return &Handler{renderer: r, data: data}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/", h.getIndex)
}

// getIndex renders index.html. Render writes nothing on failure, so the
// error handler gets a clean response to fill in.
func (h *Handler) getIndex(c *fiber.Ctx) error {
	if err := h.renderer.Render(c, h.data); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	c.Status(fiber.StatusOK)
	return nil
}
