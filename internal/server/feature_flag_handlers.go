package server

import "github.com/gofiber/fiber/v2"

// FeatureFlagsResponse is the body of GET /api/feature-flags.
type FeatureFlagsResponse struct {
	Raw       map[string]string `json:"raw"`
	Evaluated map[string]bool   `json:"evaluated"`
}

// GetFeatureFlags reports the configured rollouts and how each one resolves
// for the caller.
// @Summary List feature flags
// @Tags feature-flags
// @Produce json
// @Security BearerAuth
// @Success 200 {object} FeatureFlagsResponse
// @Router /feature-flags [get]
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	return c.JSON(FeatureFlagsResponse{
		Raw:       s.featureFlags.Raw(),
		Evaluated: s.featureFlags.Snapshot(currentUserID(c)),
	})
}
