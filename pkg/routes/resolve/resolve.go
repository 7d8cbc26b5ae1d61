package resolve

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/resolver"
	"github.com/Ramsey-B/fern/pkg/utils"
)

// batchWorkers bounds how many listings of a batch resolve at once
const batchWorkers = 8

// BatchRequest resolves several listings in one call
type BatchRequest struct {
	Listings []models.ScrapedListing `json:"listings" validate:"required,min=1,max=100,dive"`
}

// BatchResponse keeps the order of the request
type BatchResponse struct {
	Results []models.ResolveResponse `json:"results"`
}

// StrategiesResponse lists the configured cascade
type StrategiesResponse struct {
	Strategies []models.Strategy `json:"strategies"`
}

// Register registers resolution routes
func Register(g *echo.Group) {
	g.POST("", Resolve)
	g.POST("/batch", ResolveBatch)
	g.GET("/strategies", ListStrategies)
	g.POST("/:strategy", RunStrategy)
}

// Resolve runs the full cascade for one listing
func Resolve(c echo.Context) error {
	ctx := c.Request().Context()

	listing, err := utils.BindRequest[models.ScrapedListing](c)
	if err != nil {
		return err
	}

	ctx, svc, err := ectoinject.GetContext[*resolver.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	return c.JSON(http.StatusOK, svc.Resolve(ctx, listing))
}

// ResolveBatch runs the cascade for every listing in the request
func ResolveBatch(c echo.Context) error {
	ctx := c.Request().Context()

	req, err := utils.BindRequest[BatchRequest](c)
	if err != nil {
		return err
	}

	ctx, svc, err := ectoinject.GetContext[*resolver.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	results := make([]models.ResolveResponse, len(req.Listings))
	sem := make(chan struct{}, batchWorkers)
	var wg sync.WaitGroup
	for i, listing := range req.Listings {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, listing models.ScrapedListing) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = svc.Resolve(ctx, listing)
		}(i, listing)
	}
	wg.Wait()

	return c.JSON(http.StatusOK, BatchResponse{Results: results})
}

// ListStrategies returns the cascade order
func ListStrategies(c echo.Context) error {
	ctx := c.Request().Context()

	_, svc, err := ectoinject.GetContext[*resolver.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	return c.JSON(http.StatusOK, StrategiesResponse{Strategies: svc.Strategies()})
}

// RunStrategy runs a single strategy, bypassing the cascade and the cache.
// ?ignore_size=true drops the listing size before matching.
func RunStrategy(c echo.Context) error {
	ctx := c.Request().Context()

	strategy := models.Strategy(c.Param("strategy"))
	switch strategy {
	case models.StrategyPermit, models.StrategyMapper, models.StrategyFuzzy:
	default:
		return httperror.NewHTTPError(http.StatusNotFound, "unknown strategy: "+string(strategy))
	}

	ignoreSize := false
	if raw := c.QueryParam("ignore_size"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return httperror.NewHTTPError(http.StatusBadRequest, "ignore_size must be a boolean")
		}
		ignoreSize = v
	}

	listing, err := utils.BindRequest[models.ScrapedListing](c)
	if err != nil {
		return err
	}

	ctx, svc, err := ectoinject.GetContext[*resolver.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	resp, err := svc.RunStrategy(ctx, strategy, listing, ignoreSize)
	if err != nil {
		return httperror.WrapError(http.StatusBadRequest, err)
	}

	return c.JSON(http.StatusOK, resp)
}
