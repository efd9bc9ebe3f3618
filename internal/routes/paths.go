package routes

import (
	"net/url"
	"strconv"
)

// List limits applied when the caller does not ask for one.
const (
	LimitDefault       = 10000
	LimitStyles        = 1000
	LimitStyleVariants = 1000
)

// APIPrefix is the mount point of the backend REST API.
const APIPrefix = "/api/v1"

// Resource builds the CRUD endpoints of one backend collection. Paths are relative to
// APIPrefix.
type Resource struct {
	Base         string
	DefaultLimit int
}

// List returns the collection path with a limit query. A non-positive limit falls back
// to the resource default.
func (r Resource) List(limit int) string {
	if r.DefaultLimit == 0 {
		return r.Base
	}
	if limit <= 0 {
		limit = r.DefaultLimit
	}
	return r.Base + "?limit=" + strconv.Itoa(limit)
}

// Detail returns the path of a single record.
func (r Resource) Detail(id int64) string {
	return r.Base + "/" + strconv.FormatInt(id, 10)
}

// Create returns the collection path used for POST.
func (r Resource) Create() string { return r.Base }

// Update returns the record path used for PUT.
func (r Resource) Update(id int64) string { return r.Detail(id) }

// Delete returns the record path used for DELETE.
func (r Resource) Delete(id int64) string { return r.Detail(id) }

// Backend collections.
var (
	UserRecords       = Resource{Base: "/users", DefaultLimit: LimitDefault}
	Buyers            = Resource{Base: "/buyers", DefaultLimit: LimitDefault}
	Suppliers         = Resource{Base: "/suppliers", DefaultLimit: LimitDefault}
	Contacts          = Resource{Base: "/contacts", DefaultLimit: LimitDefault}
	Shipping          = Resource{Base: "/shipping", DefaultLimit: LimitDefault}
	Banking           = Resource{Base: "/banking", DefaultLimit: LimitDefault}
	SampleRecords     = Resource{Base: "/samples", DefaultLimit: LimitDefault}
	StyleSummaries    = Resource{Base: "/samples/styles", DefaultLimit: LimitStyles}
	StyleVariants     = Resource{Base: "/samples/style-variants", DefaultLimit: LimitStyleVariants}
	RequiredMaterials = Resource{Base: "/samples/required-materials"}
	TNA               = Resource{Base: "/samples/tna"}
	Plans             = Resource{Base: "/samples/plan"}
	SMV               = Resource{Base: "/samples/smv"}
	OperationsMaster  = Resource{Base: "/samples/operations-master"}
	OrderRecords      = Resource{Base: "/orders", DefaultLimit: LimitDefault}
	Materials         = Resource{Base: "/materials", DefaultLimit: LimitDefault}
	Colors            = Resource{Base: "/master/colors"}
	Sizes             = Resource{Base: "/master/sizes"}
	ProductionRecords = Resource{Base: "/production", DefaultLimit: LimitDefault}
	InventoryRecords  = Resource{Base: "/inventory", DefaultLimit: LimitDefault}
)

// Auth endpoints.
const (
	AuthLogin          = "/auth/login"
	AuthLogout         = "/auth/logout"
	AuthRegister       = "/auth/register"
	AuthMe             = "/auth/me"
	AuthForgotPassword = "/auth/forgot-password"
	AuthResetPassword  = "/auth/reset-password"
)

// SampleBySampleID returns the lookup path by the human sample code.
func SampleBySampleID(sampleID string) string {
	return SampleRecords.Base + "/by-sample-id/" + url.PathEscape(sampleID)
}

// SampleOperationsFor returns the operations attached to a sample.
func SampleOperationsFor(sampleID int64) string {
	return SampleRecords.Base + "/operations?sample_id=" + strconv.FormatInt(sampleID, 10)
}

// SampleOperationCreate is the POST path for a sample operation.
const SampleOperationCreate = "/samples/operations"

// StyleVariantsFor lists variants, optionally narrowed to a style summary.
func StyleVariantsFor(styleSummaryID int64, limit int) string {
	if limit <= 0 {
		limit = LimitStyleVariants
	}
	q := "?"
	if styleSummaryID > 0 {
		q += "style_summary_id=" + strconv.FormatInt(styleSummaryID, 10) + "&"
	}
	return StyleVariants.Base + q + "limit=" + strconv.Itoa(limit)
}

// RequiredMaterialsFor lists required materials, optionally for one style variant.
func RequiredMaterialsFor(styleVariantID int64) string {
	if styleVariantID > 0 {
		return RequiredMaterials.Base + "?style_variant_id=" + strconv.FormatInt(styleVariantID, 10)
	}
	return RequiredMaterials.Base
}

// ColorsFor lists active colors, optionally within a category.
func ColorsFor(category string) string {
	return masterList(Colors.Base, category)
}

// SizesFor lists active sizes, optionally within a category.
func SizesFor(category string) string {
	return masterList(Sizes.Base, category)
}

// MasterSeedDefaults seeds default colors and sizes.
const MasterSeedDefaults = "/master/seed-defaults"

func masterList(base, category string) string {
	q := "?"
	if category != "" {
		q += "category=" + url.QueryEscape(category) + "&"
	}
	return base + q + "is_active=true"
}

// Report endpoints.
const ReportsDashboard = "/reports/dashboard"

// ReportsExport returns the export path for a report type.
func ReportsExport(kind string) string {
	return "/reports/export/" + url.PathEscape(kind)
}
