package backend

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/southern-apparels/sa-erp/internal/routes"
)

// Resource exposes CRUD on one backend collection.
type Resource struct {
	client *Client
	path   routes.Resource
}

// List fetches the collection; limit <= 0 uses the collection default.
func (r Resource) List(ctx context.Context, token string, limit int) ([]Record, error) {
	return r.client.list(ctx, r.path.List(limit), token)
}

// Get fetches one record.
func (r Resource) Get(ctx context.Context, token string, id int64) (Record, error) {
	var out Record
	err := r.client.DoJSON(ctx, http.MethodGet, r.path.Detail(id), token, nil, &out)
	return out, err
}

// Create posts a new record.
func (r Resource) Create(ctx context.Context, token string, data any) (Record, error) {
	var out Record
	err := r.client.DoJSON(ctx, http.MethodPost, r.path.Create(), token, data, &out)
	return out, err
}

// Update replaces a record.
func (r Resource) Update(ctx context.Context, token string, id int64, data any) (Record, error) {
	var out Record
	err := r.client.DoJSON(ctx, http.MethodPut, r.path.Update(id), token, data, &out)
	return out, err
}

// Delete removes a record.
func (r Resource) Delete(ctx context.Context, token string, id int64) error {
	_, err := r.client.Do(ctx, http.MethodDelete, r.path.Delete(id), token, nil)
	return err
}

func (c *Client) list(ctx context.Context, path, token string) ([]Record, error) {
	var out []Record
	if err := c.DoJSON(ctx, http.MethodGet, path, token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Fetch loads any backend path with GET and returns the raw JSON.
func (c *Client) Fetch(ctx context.Context, path, token string) (json.RawMessage, error) {
	return c.Do(ctx, http.MethodGet, path, token, nil)
}

// SampleService adds the sample lookups and operations.
type SampleService struct {
	Resource
}

// GetBySampleID looks a sample up by its human code.
func (s SampleService) GetBySampleID(ctx context.Context, token, sampleID string) (Record, error) {
	var out Record
	err := s.client.DoJSON(ctx, http.MethodGet, routes.SampleBySampleID(sampleID), token, nil, &out)
	return out, err
}

// Operations lists the operations attached to a sample.
func (s SampleService) Operations(ctx context.Context, token string, sampleID int64) ([]Record, error) {
	return s.client.list(ctx, routes.SampleOperationsFor(sampleID), token)
}

// CreateOperation attaches an operation to a sample.
func (s SampleService) CreateOperation(ctx context.Context, token string, data any) (Record, error) {
	var out Record
	err := s.client.DoJSON(ctx, http.MethodPost, routes.SampleOperationCreate, token, data, &out)
	return out, err
}

// VariantService lists style variants by style summary.
type VariantService struct {
	Resource
}

// ListFor lists variants of one style summary, or all when styleSummaryID is 0.
func (s VariantService) ListFor(ctx context.Context, token string, styleSummaryID int64, limit int) ([]Record, error) {
	return s.client.list(ctx, routes.StyleVariantsFor(styleSummaryID, limit), token)
}

// MaterialRequirementService lists required materials by style variant.
type MaterialRequirementService struct {
	Resource
}

// ListFor lists required materials of one variant, or all when styleVariantID is 0.
func (s MaterialRequirementService) ListFor(ctx context.Context, token string, styleVariantID int64) ([]Record, error) {
	return s.client.list(ctx, routes.RequiredMaterialsFor(styleVariantID), token)
}

// MasterService serves colors and sizes.
type MasterService struct {
	Resource
	listPath func(category string) string
}

// ListCategory lists active entries, optionally within a category.
func (s MasterService) ListCategory(ctx context.Context, token, category string) ([]Record, error) {
	return s.client.list(ctx, s.listPath(category), token)
}

// SeedDefaults asks the backend to seed default colors and sizes.
func (s MasterService) SeedDefaults(ctx context.Context, token string) (json.RawMessage, error) {
	return s.client.Do(ctx, http.MethodPost, routes.MasterSeedDefaults, token, nil)
}

// ReportService reads dashboards and exports.
type ReportService struct {
	client *Client
}

// Dashboard fetches the report dashboard.
func (s ReportService) Dashboard(ctx context.Context, token string) (json.RawMessage, error) {
	return s.client.Fetch(ctx, routes.ReportsDashboard, token)
}

// Export fetches an exported report.
func (s ReportService) Export(ctx context.Context, token, kind string) (json.RawMessage, error) {
	return s.client.Fetch(ctx, routes.ReportsExport(kind), token)
}

// Services groups every backend collection.
type Services struct {
	Client *Client

	Auth              AuthService
	Users             Resource
	Buyers            Resource
	Suppliers         Resource
	Contacts          Resource
	Shipping          Resource
	Banking           Resource
	Samples           SampleService
	Styles            Resource
	StyleVariants     VariantService
	RequiredMaterials MaterialRequirementService
	Orders            Resource
	Materials         Resource
	Colors            MasterService
	Sizes             MasterService
	Production        Resource
	Inventory         Resource
	Reports           ReportService
	TNA               Resource
	Plans             Resource
	SMV               Resource
	OperationsMaster  Resource
}

// NewServices wires every collection onto one client.
func NewServices(c *Client) *Services {
	res := func(p routes.Resource) Resource { return Resource{client: c, path: p} }
	return &Services{
		Client:            c,
		Auth:              AuthService{client: c},
		Users:             res(routes.UserRecords),
		Buyers:            res(routes.Buyers),
		Suppliers:         res(routes.Suppliers),
		Contacts:          res(routes.Contacts),
		Shipping:          res(routes.Shipping),
		Banking:           res(routes.Banking),
		Samples:           SampleService{res(routes.SampleRecords)},
		Styles:            res(routes.StyleSummaries),
		StyleVariants:     VariantService{res(routes.StyleVariants)},
		RequiredMaterials: MaterialRequirementService{res(routes.RequiredMaterials)},
		Orders:            res(routes.OrderRecords),
		Materials:         res(routes.Materials),
		Colors:            MasterService{Resource: res(routes.Colors), listPath: routes.ColorsFor},
		Sizes:             MasterService{Resource: res(routes.Sizes), listPath: routes.SizesFor},
		Production:        res(routes.ProductionRecords),
		Inventory:         res(routes.InventoryRecords),
		Reports:           ReportService{client: c},
		TNA:               res(routes.TNA),
		Plans:             res(routes.Plans),
		SMV:               res(routes.SMV),
		OperationsMaster:  res(routes.OperationsMaster),
	}
}
