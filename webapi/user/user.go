package user

import (
	"github.com/amirasaad/spendsense/pkg/analysis"
	"github.com/amirasaad/spendsense/pkg/cache"
	"github.com/amirasaad/spendsense/pkg/config"
	"github.com/amirasaad/spendsense/pkg/middleware"
	"github.com/amirasaad/spendsense/pkg/service/insight"
	"github.com/amirasaad/spendsense/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/google/uuid"
)

// Routes registers the per-user insight endpoints. When a JWT secret is
// configured every route requires a token issued to the user in the path.
func Routes(app *fiber.App, svc *insight.Service, store cache.Store, cfg *config.App) {
	chain := func(purpose cache.Purpose, h fiber.Handler) []fiber.Handler {
		var handlers []fiber.Handler
		if cfg != nil && cfg.Auth != nil && cfg.Auth.Jwt != nil && cfg.Auth.Jwt.Secret != "" {
			handlers = append(handlers, middleware.Protected(cfg.Auth.Jwt), middleware.RequireSelf("id"))
		}
		handlers = append(handlers, rateLimit(purpose, store, cfg))
		return append(handlers, h)
	}

	app.Get("/api/users/:id/profile", chain(cache.PurposeProfile, GetProfile(svc))...)
	app.Get("/api/users/:id/signals/:family", chain(cache.PurposeSignals, GetSignals(svc, cfg))...)
	app.Post("/api/users/:id/eligibility", chain(cache.PurposeEligibility, CheckEligibility(svc))...)
	app.Post("/api/users/:id/recommendations", chain(cache.PurposeRecommendations, CreateRecommendations(svc))...)
	app.Get("/api/users/:id/recommendations", chain(cache.PurposeRecommendations, ListRecommendations(svc))...)
}

// rateLimit limits requests per user and purpose, counting in store.
func rateLimit(purpose cache.Purpose, store cache.Store, cfg *config.App) fiber.Handler {
	lc := limiter.Config{
		Max: 60,
		KeyGenerator: func(c *fiber.Ctx) string {
			return cache.Key(c.Params("id"), purpose)
		},
		LimitReached: func(c *fiber.Ctx) error {
			return common.ProblemDetailsJSON(c, "Too Many Requests", nil, "rate limit exceeded", fiber.StatusTooManyRequests)
		},
	}
	if cfg != nil && cfg.RateLimit != nil {
		lc.Max = cfg.RateLimit.MaxRequests
		lc.Expiration = cfg.RateLimit.Window
	}
	if store != nil {
		lc.Storage = store
	}
	return limiter.New(lc)
}

func invalidUserID(c *fiber.Ctx, err error) error {
	return common.ProblemDetailsJSON(c, "Invalid user ID", err, "User ID must be a valid UUID", fiber.StatusBadRequest)
}

// GetProfile returns the user's persona assignment with signals and decision trace.
// @Summary Get user profile
// @Description Assign the user's persona from their behavioral signals
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 401 {object} common.ProblemDetails
// @Failure 403 {object} common.ProblemDetails
// @Failure 404 {object} common.ProblemDetails
// @Failure 429 {object} common.ProblemDetails
// @Router /api/users/{id}/profile [get]
// @Security Bearer
func GetProfile(svc *insight.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return invalidUserID(c, err)
		}
		assignment, err := svc.AssignPersonaToUser(c.UserContext(), id)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't assign persona", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Persona assigned", assignment)
	}
}

// GetSignals runs one analyzer family over ?window= days.
// @Summary Get behavioral signals
// @Description Run one analyzer family over the requested window
// @Tags signals
// @Produce json
// @Param id path string true "User ID"
// @Param family path string true "Analyzer family" Enums(credit, income, savings, subscription)
// @Param window query int false "Window in days"
// @Success 200 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 401 {object} common.ProblemDetails
// @Failure 403 {object} common.ProblemDetails
// @Failure 404 {object} common.ProblemDetails
// @Failure 429 {object} common.ProblemDetails
// @Router /api/users/{id}/signals/{family} [get]
// @Security Bearer
func GetSignals(svc *insight.Service, cfg *config.App) fiber.Handler {
	defaultWindow := config.DefaultAnalysis().ShortWindowDays
	if cfg != nil && cfg.Analysis != nil {
		defaultWindow = cfg.Analysis.ShortWindowDays
	}
	return func(c *fiber.Ctx) error {
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return invalidUserID(c, err)
		}
		family, err := analysis.ParseFamily(c.Params("family"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid analyzer family", err)
		}
		res, err := svc.Analyze(c.UserContext(), id, family, c.QueryInt("window", defaultWindow))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't compute signals", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Signals computed", fiber.Map{
			"family": family,
			"result": res,
		})
	}
}

// CheckEligibility evaluates one offer against the user without persisting anything.
// @Summary Check offer eligibility
// @Description Evaluate one offer against the user's eligibility profile
// @Tags offers
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body EligibilityRequest true "Offer to evaluate"
// @Success 200 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 401 {object} common.ProblemDetails
// @Failure 403 {object} common.ProblemDetails
// @Failure 404 {object} common.ProblemDetails
// @Failure 429 {object} common.ProblemDetails
// @Router /api/users/{id}/eligibility [post]
// @Security Bearer
func CheckEligibility(svc *insight.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[EligibilityRequest](c)
		if input == nil {
			return err
		}
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return invalidUserID(c, err)
		}
		result, err := svc.CheckOfferEligibility(c.UserContext(), id, input.Offer)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't check eligibility", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Eligibility checked", result)
	}
}

// CreateRecommendations assigns a persona, filters the offers through the
// guardrail and persists the eligible ones.
// @Summary Issue recommendations
// @Description Filter offers through the guardrail and save the eligible ones
// @Tags offers
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body RecommendationsRequest true "Candidate offers"
// @Success 201 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 401 {object} common.ProblemDetails
// @Failure 403 {object} common.ProblemDetails
// @Failure 404 {object} common.ProblemDetails
// @Failure 429 {object} common.ProblemDetails
// @Failure 500 {object} common.ProblemDetails
// @Router /api/users/{id}/recommendations [post]
// @Security Bearer
func CreateRecommendations(svc *insight.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[RecommendationsRequest](c)
		if input == nil {
			return err
		}
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return invalidUserID(c, err)
		}
		out, err := svc.Recommend(c.UserContext(), id, input.Offers)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't issue recommendations", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Recommendations issued", out)
	}
}

// ListRecommendations returns the recommendations persisted for the user.
// @Summary List recommendations
// @Description List the recommendations saved for the user
// @Tags offers
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 401 {object} common.ProblemDetails
// @Failure 403 {object} common.ProblemDetails
// @Failure 404 {object} common.ProblemDetails
// @Failure 429 {object} common.ProblemDetails
// @Router /api/users/{id}/recommendations [get]
// @Security Bearer
func ListRecommendations(svc *insight.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return invalidUserID(c, err)
		}
		recs, err := svc.ListRecommendations(c.UserContext(), id)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Couldn't list recommendations", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Recommendations found", recs)
	}
}
