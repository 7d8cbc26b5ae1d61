package aliases

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/pkg/alias"
)

const (
	defaultSuggestions = 5
	maxSuggestions     = 50
)

// ResolveResponse is a resolution together with the spellings a store query would accept
type ResolveResponse struct {
	alias.Resolution
	Variants []string `json:"variants"`
}

// ExpandResponse lists every spelling of a canonical name
type ExpandResponse struct {
	Canonical string      `json:"canonical"`
	Scope     alias.Scope `json:"scope"`
	Variants  []string    `json:"variants"`
}

// SuggestResponse lists dataset variants near an unresolved name
type SuggestResponse struct {
	Name        string             `json:"name"`
	Scope       alias.Scope        `json:"scope"`
	Suggestions []alias.Suggestion `json:"suggestions"`
}

// Register registers alias lookup routes
func Register(g *echo.Group) {
	g.GET("/resolve", ResolveAlias)
	g.GET("/listing", ResolveListing)
	g.GET("/expand", ExpandAlias)
	g.GET("/suggest", SuggestAliases)
	g.GET("/stats", GetStats)
}

func requireName(c echo.Context) (string, error) {
	name := strings.TrimSpace(c.QueryParam("name"))
	if name == "" {
		return "", httperror.NewHTTPError(http.StatusBadRequest, "name query parameter is required")
	}
	return name, nil
}

func parseScope(c echo.Context) (alias.Scope, error) {
	scope, ok := alias.ParseScope(c.QueryParam("scope"))
	if !ok {
		return "", httperror.NewHTTPError(http.StatusBadRequest, "scope must be project or masterProject")
	}
	return scope, nil
}

// ResolveAlias resolves one raw name
func ResolveAlias(c echo.Context) error {
	ctx := c.Request().Context()

	name, err := requireName(c)
	if err != nil {
		return err
	}
	scope, err := parseScope(c)
	if err != nil {
		return err
	}

	_, idx, err := ectoinject.GetContext[*alias.Index](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	res := idx.Resolve(name, scope, alias.Hint{
		Area:          c.QueryParam("area"),
		MasterProject: c.QueryParam("master_project"),
	})
	return c.JSON(http.StatusOK, ResolveResponse{Resolution: res, Variants: idx.Variants(res, scope)})
}

// ResolveListing resolves a project and master project pair the way the mapper does
func ResolveListing(c echo.Context) error {
	ctx := c.Request().Context()

	project := strings.TrimSpace(c.QueryParam("project"))
	if project == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "project query parameter is required")
	}

	_, idx, err := ectoinject.GetContext[*alias.Index](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	res := idx.ResolveListing(project, c.QueryParam("master_project"), c.QueryParam("area"))
	return c.JSON(http.StatusOK, res)
}

// ExpandAlias lists every known spelling of a canonical name
func ExpandAlias(c echo.Context) error {
	ctx := c.Request().Context()

	name, err := requireName(c)
	if err != nil {
		return err
	}
	scope, err := parseScope(c)
	if err != nil {
		return err
	}

	_, idx, err := ectoinject.GetContext[*alias.Index](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	return c.JSON(http.StatusOK, ExpandResponse{Canonical: name, Scope: scope, Variants: idx.Expand(name, scope)})
}

// SuggestAliases lists the registered variants closest to a name
func SuggestAliases(c echo.Context) error {
	ctx := c.Request().Context()

	name, err := requireName(c)
	if err != nil {
		return err
	}
	scope, err := parseScope(c)
	if err != nil {
		return err
	}

	limit := defaultSuggestions
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxSuggestions {
			return httperror.NewHTTPError(http.StatusBadRequest, "limit must be between 1 and 50")
		}
	}

	_, idx, err := ectoinject.GetContext[*alias.Index](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	suggestions := idx.Suggest(name, scope, limit)
	if suggestions == nil {
		suggestions = []alias.Suggestion{}
	}
	return c.JSON(http.StatusOK, SuggestResponse{Name: name, Scope: scope, Suggestions: suggestions})
}

// GetStats reports index sizes
func GetStats(c echo.Context) error {
	_, idx, err := ectoinject.GetContext[*alias.Index](c.Request().Context())
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}
	return c.JSON(http.StatusOK, idx.Stats())
}
