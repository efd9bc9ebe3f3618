// Package querykeys names the cached views of backend data. The browser bundle uses the
// same strings for its client cache, and the gateway uses them as Redis list-cache keys,
// so a write seen by either side invalidates the same entries.
package querykeys

import (
	"strconv"
	"strings"
)

// Key is a cache key for one backend view.
type Key string

func (k Key) String() string { return string(k) }

func detail(prefix string, id int64) Key {
	return Key(prefix + "-detail-" + strconv.FormatInt(id, 10))
}

// List keys.
const (
	UsersList             Key = "users-list"
	BuyersList            Key = "buyers-list"
	SuppliersList         Key = "suppliers-list"
	ContactsList          Key = "contacts-list"
	ShippingList          Key = "shipping-list"
	BankingList           Key = "banking-list"
	SamplesList           Key = "samples-list"
	StylesList            Key = "styles-list"
	StyleVariantsList     Key = "style-variants-list"
	MaterialsList         Key = "materials-list"
	RequiredMaterialsList Key = "required-materials-list"
	OrdersList            Key = "orders-list"
	ProductionList        Key = "production-list"
	InventoryList         Key = "inventory-list"
	ColorsList            Key = "colors-list"
	SizesList             Key = "sizes-list"
	SampleTNAList         Key = "sample-tna-list"
	SamplePlanList        Key = "sample-plan-list"
	SampleSMVList         Key = "sample-smv-list"
	OperationsMasterList  Key = "operations-master-list"
	ReportsDashboard      Key = "reports-dashboard"
)

func UserByID(id int64) Key         { return Key("user-detail-" + strconv.FormatInt(id, 10)) }
func Buyer(id int64) Key            { return detail("buyer", id) }
func Supplier(id int64) Key         { return detail("supplier", id) }
func Contact(id int64) Key          { return detail("contact", id) }
func Shipping(id int64) Key         { return detail("shipping", id) }
func Banking(id int64) Key          { return detail("banking", id) }
func Sample(id int64) Key           { return detail("sample", id) }
func Style(id int64) Key            { return detail("style", id) }
func StyleVariant(id int64) Key     { return detail("style-variant", id) }
func Material(id int64) Key         { return detail("material", id) }
func RequiredMaterial(id int64) Key { return detail("required-material", id) }
func Order(id int64) Key            { return detail("order", id) }
func Production(id int64) Key       { return detail("production", id) }
func Inventory(id int64) Key        { return detail("inventory", id) }
func Color(id int64) Key            { return detail("color", id) }
func Size(id int64) Key             { return detail("size", id) }

// SampleBySampleID keys the lookup of a sample by its human code.
func SampleBySampleID(sampleID string) Key { return Key("sample-by-id-" + sampleID) }

// SampleOperations keys the operations attached to a sample.
func SampleOperations(sampleID int64) Key {
	return Key("sample-operations-" + strconv.FormatInt(sampleID, 10))
}

// StyleVariants returns the variant list key, narrowed to a style summary when id > 0.
func StyleVariants(styleSummaryID int64) Key {
	if styleSummaryID > 0 {
		return Key("style-variants-" + strconv.FormatInt(styleSummaryID, 10))
	}
	return StyleVariantsList
}

// RequiredMaterials returns the required material list key for a style variant.
func RequiredMaterials(styleVariantID int64) Key {
	if styleVariantID > 0 {
		return Key("required-materials-" + strconv.FormatInt(styleVariantID, 10))
	}
	return RequiredMaterialsList
}

// Colors returns the color list key for a category.
func Colors(category string) Key {
	if category != "" {
		return Key("colors-" + category)
	}
	return ColorsList
}

// Sizes returns the size list key for a category.
func Sizes(category string) Key {
	if category != "" {
		return Key("sizes-" + category)
	}
	return SizesList
}

// ReportsExport keys an exported report.
func ReportsExport(kind string) Key { return Key("reports-export-" + kind) }

// AllListKeys returns every module list key, used for bulk invalidation.
func AllListKeys() []Key {
	return []Key{
		UsersList,
		BuyersList,
		SuppliersList,
		ContactsList,
		ShippingList,
		BankingList,
		SamplesList,
		StylesList,
		StyleVariantsList,
		MaterialsList,
		OrdersList,
		ProductionList,
		InventoryList,
	}
}

// Strings converts keys for APIs that take plain strings.
func Strings(keys []Key) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = string(k)
	}
	return out
}

// binding ties a backend path prefix to the list view it feeds.
type binding struct {
	prefix string
	list   Key
	path   string
}

// Ordered longest prefix first so nested sample resources win over /samples.
var bindings = []binding{
	{"/samples/required-materials", RequiredMaterialsList, "/samples/required-materials"},
	{"/samples/operations-master", OperationsMasterList, "/samples/operations-master"},
	{"/samples/style-variants", StyleVariantsList, "/samples/style-variants?limit=1000"},
	{"/samples/styles", StylesList, "/samples/styles?limit=1000"},
	{"/samples/tna", SampleTNAList, "/samples/tna"},
	{"/samples/plan", SamplePlanList, "/samples/plan"},
	{"/samples/smv", SampleSMVList, "/samples/smv"},
	{"/master/colors", ColorsList, "/master/colors?is_active=true"},
	{"/master/sizes", SizesList, "/master/sizes?is_active=true"},
	{"/production", ProductionList, "/production?limit=10000"},
	{"/suppliers", SuppliersList, "/suppliers?limit=10000"},
	{"/inventory", InventoryList, "/inventory?limit=10000"},
	{"/materials", MaterialsList, "/materials?limit=10000"},
	{"/contacts", ContactsList, "/contacts?limit=10000"},
	{"/shipping", ShippingList, "/shipping?limit=10000"},
	{"/samples", SamplesList, "/samples?limit=10000"},
	{"/banking", BankingList, "/banking?limit=10000"},
	{"/buyers", BuyersList, "/buyers?limit=10000"},
	{"/orders", OrdersList, "/orders?limit=10000"},
	{"/users", UsersList, "/users?limit=10000"},
}

// ForAPIPath returns the list keys invalidated by a write to the given backend path.
// The path may carry the /api/v1 prefix and a query string. Unknown paths yield nil.
func ForAPIPath(path string) []Key {
	b, ok := lookup(path)
	if !ok {
		return nil
	}
	keys := []Key{b.list}
	if b.list == SamplesList {
		keys = append(keys, SampleTNAList, SamplePlanList, SampleSMVList)
	}
	return keys
}

// Refreshable returns every list key that has a backend list path.
func Refreshable() []Key {
	out := make([]Key, len(bindings))
	for i, b := range bindings {
		out[i] = b.list
	}
	return out
}

// ListPath returns the backend path that loads the given list key.
func ListPath(key Key) (string, bool) {
	for _, b := range bindings {
		if b.list == key {
			return b.path, true
		}
	}
	return "", false
}

func lookup(path string) (binding, bool) {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	path = strings.TrimPrefix(path, "/api/v1")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	path = strings.TrimSuffix(path, "/")
	for _, b := range bindings {
		if path == b.prefix || strings.HasPrefix(path, b.prefix+"/") {
			return b, true
		}
	}
	return binding{}, false
}
