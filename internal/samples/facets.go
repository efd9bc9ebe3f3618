package samples

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/southern-apparels/sa-erp/internal/backend"
	"github.com/southern-apparels/sa-erp/internal/listcache"
	"github.com/southern-apparels/sa-erp/internal/querykeys"
)

// ListSource loads a list, normally through the list cache.
type ListSource interface {
	Fetch(ctx context.Context, key string, dest any, loader listcache.Loader) (json.RawMessage, error)
}

// collator instances are not safe for concurrent use.
var collatorPool = sync.Pool{
	New: func() any { return collate.New(language.English) },
}

// UniqueSorted returns the distinct non-empty string values of field across records,
// in collation order.
func UniqueSorted(records []backend.Record, field string) []string {
	seen := make(map[string]struct{}, len(records))
	out := make([]string, 0, len(records))
	for _, rec := range records {
		v, ok := rec[field].(string)
		if !ok {
			continue
		}
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	c := collatorPool.Get().(*collate.Collator)
	c.SortStrings(out)
	collatorPool.Put(c)
	return out
}

// Facets maps a field name to its distinct values.
type Facets map[string][]string

// BuildFacets collects UniqueSorted for each field.
func BuildFacets(records []backend.Record, fields ...string) Facets {
	out := make(Facets, len(fields))
	for _, f := range fields {
		out[f] = UniqueSorted(records, f)
	}
	return out
}

// facetSource ties a facet endpoint to its list and fields.
type facetSource struct {
	key    querykeys.Key
	fields []string
}

var (
	smvFacets       = facetSource{querykeys.SampleSMVList, []string{"buyer_name", "style_name", "category"}}
	tnaFacets       = facetSource{querykeys.SampleTNAList, []string{"buyer_name", "style_name", "color"}}
	planFacets      = facetSource{querykeys.SamplePlanList, []string{"buyer_name", "submit_status"}}
	materialsFacets = facetSource{querykeys.RequiredMaterialsList, []string{"uom", "material", "style_name"}}
)

// loadFacets reads the list behind src through lists and computes its facets.
func loadFacets(ctx context.Context, lists ListSource, api Fetcher, token string, src facetSource) (Facets, error) {
	path, ok := querykeys.ListPath(src.key)
	if !ok {
		return nil, fmt.Errorf("no list path for %s", src.key)
	}
	var records []backend.Record
	_, err := lists.Fetch(ctx, src.key.String(), &records, func(ctx context.Context) (json.RawMessage, error) {
		return api.Fetch(ctx, path, token)
	})
	if err != nil {
		return nil, err
	}
	return BuildFacets(records, src.fields...), nil
}
