package resolve

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/matching"
	"github.com/Ramsey-B/fern/pkg/middleware"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/resolver"
	"github.com/Ramsey-B/fern/pkg/store/memstore"
)

func ptr[T any](v T) *T { return &v }

func TestMain(m *testing.M) {
	logger := ectologger.NewEctoLogger(func(ectologger.EctoLogMessage) {})

	st := memstore.New()
	st.Permits.Add(models.PermitRecord{ID: "1", PNumber: "23456", Unit: ptr("1203"), Size: ptr("111.48")})
	st.Legacy.Add(models.LegacyRecord{ID: "2", UnitNumber: ptr("L1"), Project: ptr("Marina Gate"), Size: ptr("111.48")})
	svc := resolver.NewService(logger, matching.NewOrchestrator(logger, nil, st.Collections(), matching.DefaultConfig()))

	container, err := ectoinject.NewDIDefaultContainer()
	if err != nil {
		panic(err)
	}
	if err := ectoinject.RegisterInstance[*resolver.Service](container, svc); err != nil {
		panic(err)
	}

	os.Exit(m.Run())
}

func serve(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.HTTPErrorHandler = middleware.Error(ectologger.NewEctoLogger(func(ectologger.EctoLogMessage) {}))
	Register(e.Group("/api/v1/resolve"))

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

const marinaGate = `{"location_details":{"project":"Marina Gate"},"size_numeric":1199.96}`

func TestResolve(t *testing.T) {
	t.Run("should resolve through the permit strategy and strip internal fields", func(t *testing.T) {
		rec := serve(t, http.MethodPost, "/api/v1/resolve", `{"permit_number":"7123456","size_numeric":1199.96}`)
		require.Equal(t, http.StatusOK, rec.Code)

		assert.NotContains(t, rec.Body.String(), "permit_number")
		assert.NotContains(t, rec.Body.String(), "size_sqm")
		assert.NotContains(t, rec.Body.String(), "size_numeric")

		resp := decode[models.ResolveResponse](t, rec)
		assert.Equal(t, models.StrategyPermit, resp.Result.Strategy)
		assert.Equal(t, models.ReasonExactTruncatedPermit, resp.Result.Reason)
		require.Len(t, resp.Result.Candidates, 1)
		assert.Equal(t, "1203", resp.Result.Candidates[0].Unit)
	})

	t.Run("should fall through to the fuzzy strategy", func(t *testing.T) {
		rec := serve(t, http.MethodPost, "/api/v1/resolve", marinaGate)
		require.Equal(t, http.StatusOK, rec.Code)

		resp := decode[models.ResolveResponse](t, rec)
		assert.Equal(t, models.StrategyFuzzy, resp.Result.Strategy)
		require.Len(t, resp.Result.Candidates, 1)
		assert.Equal(t, "L1", resp.Result.Candidates[0].Unit)
	})

	t.Run("should return an empty result as success", func(t *testing.T) {
		rec := serve(t, http.MethodPost, "/api/v1/resolve", `{}`)
		require.Equal(t, http.StatusOK, rec.Code)

		resp := decode[models.ResolveResponse](t, rec)
		assert.Equal(t, models.StrategyNone, resp.Result.Strategy)
		assert.NotNil(t, resp.Result.Candidates)
		assert.Empty(t, resp.Result.Candidates)
	})

	t.Run("should reject invalid listings", func(t *testing.T) {
		rec := serve(t, http.MethodPost, "/api/v1/resolve", `{"size_numeric":-5}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestResolveBatch(t *testing.T) {
	t.Run("should keep request order", func(t *testing.T) {
		rec := serve(t, http.MethodPost, "/api/v1/resolve/batch", `{"listings":[`+marinaGate+`,{"permit_number":"7123456"}]}`)
		require.Equal(t, http.StatusOK, rec.Code)

		resp := decode[BatchResponse](t, rec)
		require.Len(t, resp.Results, 2)
		assert.Equal(t, models.StrategyFuzzy, resp.Results[0].Result.Strategy)
		assert.Equal(t, models.StrategyPermit, resp.Results[1].Result.Strategy)
	})

	t.Run("should reject an empty batch", func(t *testing.T) {
		rec := serve(t, http.MethodPost, "/api/v1/resolve/batch", `{"listings":[]}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRunStrategy(t *testing.T) {
	t.Run("should run one strategy and report attempts", func(t *testing.T) {
		rec := serve(t, http.MethodPost, "/api/v1/resolve/fuzzy", marinaGate)
		require.Equal(t, http.StatusOK, rec.Code)

		resp := decode[models.ResolveResponse](t, rec)
		assert.Equal(t, models.StrategyFuzzy, resp.Result.Strategy)
		assert.NotEmpty(t, resp.Result.Attempts)
	})

	t.Run("should drop the size when asked", func(t *testing.T) {
		rec := serve(t, http.MethodPost, "/api/v1/resolve/fuzzy?ignore_size=true", marinaGate)
		require.Equal(t, http.StatusOK, rec.Code)

		resp := decode[models.ResolveResponse](t, rec)
		assert.Empty(t, resp.Result.Candidates)
		assert.Equal(t, models.ReasonNoSizeData, resp.Result.Reason)
		assert.Equal(t, models.StrategyNone, resp.Result.Strategy)
	})

	t.Run("should reject a malformed ignore_size", func(t *testing.T) {
		rec := serve(t, http.MethodPost, "/api/v1/resolve/fuzzy?ignore_size=maybe", marinaGate)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("should return not found for unknown strategies", func(t *testing.T) {
		rec := serve(t, http.MethodPost, "/api/v1/resolve/psychic", marinaGate)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("should reject strategies that are not configured", func(t *testing.T) {
		rec := serve(t, http.MethodPost, "/api/v1/resolve/mapper", marinaGate)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestListStrategies(t *testing.T) {
	rec := serve(t, http.MethodGet, "/api/v1/resolve/strategies", "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[StrategiesResponse](t, rec)
	assert.Equal(t, []models.Strategy{models.StrategyPermit, models.StrategyFuzzy}, resp.Strategies)
}
