package samples_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/southern-apparels/sa-erp/internal/backend"
	"github.com/southern-apparels/sa-erp/internal/listcache"
	"github.com/southern-apparels/sa-erp/internal/querykeys"
	"github.com/southern-apparels/sa-erp/internal/samples"
	_ "github.com/southern-apparels/sa-erp/testing"
)

type fakeAPI struct {
	mu        sync.Mutex
	posts     map[string][]map[string]any
	tokens    []string
	listCalls int32
	failPiece string
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = append(f.tokens, r.Header.Get("Authorization"))
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/api/v1/samples/by-sample-id/S-1":
		_, _ = w.Write([]byte(`{"id":1,"sample_id":"S-1","buyer_name":"Zara","style_name":"Polo","sample_type":"Proto"}`))
	case r.Method == http.MethodGet && r.URL.Path == "/api/v1/samples/by-sample-id/missing":
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"Sample not found"}`))
	case r.Method == http.MethodGet && r.URL.Path == "/api/v1/samples/tna":
		atomic.AddInt32(&f.listCalls, 1)
		_, _ = w.Write([]byte(`[{"buyer_name":"Zara","style_name":"Polo","color":"Red"},{"buyer_name":"Asos","style_name":"Tee","color":""}]`))
	case r.Method == http.MethodPost:
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if f.posts == nil {
			f.posts = map[string][]map[string]any{}
		}
		f.posts[r.URL.Path] = append(f.posts[r.URL.Path], body)
		if f.failPiece != "" && body["piece_name"] == f.failPiece {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"detail":"Duplicate piece"}`))
			return
		}
		body["id"] = len(f.posts[r.URL.Path])
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(body)
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"Not Found"}`))
	}
}

type refreshes struct {
	mu   sync.Mutex
	keys []querykeys.Key
}

func (r *refreshes) Refresh(_ context.Context, keys ...querykeys.Key) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, keys...)
}

type harness struct {
	router    http.Handler
	api       *fakeAPI
	refreshed *refreshes
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	api := &fakeAPI{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	refreshed := &refreshes{}
	h, err := samples.NewHandler(samples.Config{
		Services:  backend.NewServices(backend.NewClient(srv.URL, srv.Client(), nil)),
		Lists:     listcache.New(rdb, time.Minute),
		Refresher: refreshed,
	})
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Route("/dashboard/api/samples", h.MountRoutes)
	r.Method(http.MethodGet, "/dashboard/api/openapi.json", h.Document())
	return &harness{router: r, api: api, refreshed: refreshed}
}

func (h *harness) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.AddCookie(&http.Cookie{Name: "auth_token", Value: "tok"})
	rr := httptest.NewRecorder()
	h.router.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func TestCalculateSMV(t *testing.T) {
	h := newHarness(t)
	rr := h.do(t, http.MethodPost, "/dashboard/api/samples/smv/calculate",
		`{"rows":[{"number_of_operations":2,"duration_input":"00:10:00"},{"number_of_operations":1,"duration_input":"00:45:30"}]}`)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	out := decode(t, rr)
	assert.InDelta(t, 65.5, out["total_smv"], 1e-9)
	assert.Equal(t, "1:06", out["total_clock"])
}

func TestSaveSMVUsesSampleAndRefreshes(t *testing.T) {
	h := newHarness(t)
	rr := h.do(t, http.MethodPost, "/dashboard/api/samples/smv",
		`{"sample_id":"S-1","rows":[{"operation_name":"Linking","number_of_operations":3,"duration_input":"00:02:00"}]}`)

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	saved := h.api.posts["/api/v1/samples/smv"]
	require.Len(t, saved, 1)
	assert.Equal(t, "Zara", saved[0]["buyer_name"])
	assert.Equal(t, "Proto", saved[0]["category"])
	assert.Equal(t, "N/A", saved[0]["gauge"])
	assert.InDelta(t, 6.0, saved[0]["total_smv"], 1e-9)

	var ops []map[string]any
	require.NoError(t, json.Unmarshal([]byte(saved[0]["operations"].(string)), &ops))
	assert.InDelta(t, 6.0, ops[0]["total_duration"], 1e-9)
	assert.Equal(t, []querykeys.Key{querykeys.SampleSMVList}, h.refreshed.keys)
	assert.Contains(t, h.api.tokens, "Bearer tok")
}

func TestSaveSMVRequiresRowsAndKnownSample(t *testing.T) {
	h := newHarness(t)
	rr := h.do(t, http.MethodPost, "/dashboard/api/samples/smv", `{"sample_id":"S-1","rows":[]}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Please add at least one operation", decode(t, rr)["detail"])

	rr = h.do(t, http.MethodPost, "/dashboard/api/samples/smv", `{"sample_id":"missing","rows":[{"duration_input":"00:01:00"}]}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Sample not found", decode(t, rr)["detail"])
}

func TestUnitEndpoints(t *testing.T) {
	h := newHarness(t)

	rr := h.do(t, http.MethodGet, "/dashboard/api/samples/uom/compatible?uom=kg", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []any{"g", "mg", "lb", "oz"}, decode(t, rr)["compatible"])

	rr = h.do(t, http.MethodGet, "/dashboard/api/samples/uom/compatible?uom=stone", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = h.do(t, http.MethodGet, "/dashboard/api/samples/uom/compatible", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = h.do(t, http.MethodPost, "/dashboard/api/samples/uom/convert", `{"quantity":2,"from":"yard","to":"m"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	out := decode(t, rr)
	assert.InDelta(t, 1.8288, out["result"], 1e-9)
	assert.Equal(t, "1.8288", out["display"])

	rr = h.do(t, http.MethodPost, "/dashboard/api/samples/uom/convert", `{"quantity":2,"from":"kg","to":"m"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Unable to convert between these units", decode(t, rr)["detail"])

	rr = h.do(t, http.MethodPost, "/dashboard/api/samples/uom/convert", `{"quantity":"lots","from":"kg","to":"g"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSubmitPlanIncrementsRoundOnRemake(t *testing.T) {
	h := newHarness(t)
	rr := h.do(t, http.MethodPost, "/dashboard/api/samples/plans/submit",
		`{"sample_id":"S-1","round":1,"submit_status":"reject_remake","assigned_designer":"Rina"}`)

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	out := decode(t, rr)
	assert.EqualValues(t, 2, out["round"])
	assert.Equal(t, "Sample plan submitted with status: Reject & Request for Remake (Round incremented to 2)", out["message"])

	stored := h.api.posts["/api/v1/samples/plan"]
	require.Len(t, stored, 1)
	assert.EqualValues(t, 2, stored[0]["round"])
	assert.Equal(t, "Rina", stored[0]["assigned_designer"])
	assert.Equal(t, []querykeys.Key{querykeys.SamplePlanList}, h.refreshed.keys)
}

func TestSubmitPlanRequiresStatus(t *testing.T) {
	h := newHarness(t)
	rr := h.do(t, http.MethodPost, "/dashboard/api/samples/plans/submit", `{"sample_id":"S-1","round":1}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Please select a submit status", decode(t, rr)["detail"])
	assert.Empty(t, h.api.posts)
}

func TestTNABatchCreatesEveryPiece(t *testing.T) {
	h := newHarness(t)
	rr := h.do(t, http.MethodPost, "/dashboard/api/samples/tna/batch",
		`{"tna":{"sample_id":"S-1","buyer_name":"Zara","color":"ignored"},"pieces":[{"piece_name":"Top","color":"Red"},{"piece_name":"Bottom","color":"Navy"}]}`)

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.EqualValues(t, 2, decode(t, rr)["count"])

	stored := h.api.posts["/api/v1/samples/tna"]
	require.Len(t, stored, 2)
	colors := map[any]any{}
	for _, s := range stored {
		colors[s["piece_name"]] = s["color"]
		assert.Equal(t, "Zara", s["buyer_name"])
	}
	assert.Equal(t, map[any]any{"Top": "Red", "Bottom": "Navy"}, colors)
	assert.Equal(t, []querykeys.Key{querykeys.SampleTNAList}, h.refreshed.keys)
}

func TestTNABatchPartialFailure(t *testing.T) {
	h := newHarness(t)
	h.api.failPiece = "Bottom"
	rr := h.do(t, http.MethodPost, "/dashboard/api/samples/tna/batch",
		`{"tna":{"sample_id":"S-1"},"pieces":[{"piece_name":"Top"},{"piece_name":"Bottom"}]}`)

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code, rr.Body.String())
	out := decode(t, rr)
	assert.Equal(t, "Some TNA records failed to save", out["detail"])
	failures := out["failures"].([]any)
	require.Len(t, failures, 1)
	failure := failures[0].(map[string]any)
	assert.Equal(t, "Bottom", failure["label"])
	assert.EqualValues(t, http.StatusConflict, failure["status"])
	assert.Equal(t, "Duplicate piece", failure["detail"])
	assert.Empty(t, h.refreshed.keys)
}

func TestTNABatchRejectsEmptyPieces(t *testing.T) {
	h := newHarness(t)
	rr := h.do(t, http.MethodPost, "/dashboard/api/samples/tna/batch", `{"tna":{},"pieces":[]}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, h.api.posts)
}

func TestMaterialsBatchComputesConversion(t *testing.T) {
	h := newHarness(t)
	rr := h.do(t, http.MethodPost, "/dashboard/api/samples/required-materials/batch",
		`{"style_variant_id":4,"style_name":"Polo","materials":[{"material":"Yarn","uom":"kg","consumption_per_piece":0.35,"converted_uom":"g"},{"material":"Button","uom":"pcs","consumption_per_piece":6}]}`)

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	stored := h.api.posts["/api/v1/samples/required-materials"]
	require.Len(t, stored, 2)
	byMaterial := map[any]map[string]any{}
	for _, s := range stored {
		byMaterial[s["material"]] = s
	}
	assert.Equal(t, "g", byMaterial["Yarn"]["converted_uom"])
	assert.InDelta(t, 350.0, byMaterial["Yarn"]["converted_consumption"], 1e-9)
	assert.Nil(t, byMaterial["Button"]["converted_uom"])
	assert.EqualValues(t, 4, byMaterial["Button"]["style_variant_id"])
	assert.Equal(t, []querykeys.Key{querykeys.RequiredMaterialsList}, h.refreshed.keys)
}

func TestMaterialsBatchRejectsIncompatibleConversion(t *testing.T) {
	h := newHarness(t)
	rr := h.do(t, http.MethodPost, "/dashboard/api/samples/required-materials/batch",
		`{"style_variant_id":4,"materials":[{"material":"Yarn","uom":"kg","consumption_per_piece":1,"converted_uom":"m"}]}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, h.api.posts)
}

func TestTNAFacetsAreCached(t *testing.T) {
	h := newHarness(t)
	for i := 0; i < 2; i++ {
		rr := h.do(t, http.MethodGet, "/dashboard/api/samples/tna/facets", "")
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		out := decode(t, rr)
		assert.Equal(t, []any{"Asos", "Zara"}, out["buyer_name"])
		assert.Equal(t, []any{"Red"}, out["color"])
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&h.api.listCalls))
}

func TestPlanStatusesAndDocument(t *testing.T) {
	h := newHarness(t)
	rr := h.do(t, http.MethodGet, "/dashboard/api/samples/plans/statuses", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var statuses []map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &statuses))
	assert.Len(t, statuses, 5)

	rr = h.do(t, http.MethodGet, "/dashboard/api/openapi.json", "")
	require.Equal(t, http.StatusOK, rr.Code)
	doc := decode(t, rr)
	assert.Equal(t, "3.0.3", doc["openapi"])
	assert.Contains(t, doc["paths"], "/dashboard/api/samples/tna/batch")
}
