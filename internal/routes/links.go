// Package routes holds the two path tables of the ERP: dashboard page links served to
// the browser and backend API paths used by the gateway's REST client.
package routes

import "strconv"

// Dashboard page paths.
const (
	Home           = "/"
	Login          = "/dashboard/login"
	Register       = "/dashboard/register"
	ForgotPassword = "/dashboard/forgot-password"
	Dashboard      = "/dashboard/erp"

	ClientBuyers    = "/dashboard/erp/clients/buyers"
	ClientSuppliers = "/dashboard/erp/clients/suppliers"
	ClientContacts  = "/dashboard/erp/clients/contacts"
	ClientShipping  = "/dashboard/erp/clients/shipping"
	ClientBanking   = "/dashboard/erp/clients/banking"

	Samples                 = "/dashboard/erp/samples"
	SampleStyleSummary      = "/dashboard/erp/samples/style-summary"
	SampleStyleVariants     = "/dashboard/erp/samples/style-variants"
	SampleAddMaterial       = "/dashboard/erp/samples/add-material"
	SampleRequiredMaterials = "/dashboard/erp/samples/required-materials"
	SamplePrimary           = "/dashboard/erp/samples/primary"
	SampleTNA               = "/dashboard/erp/samples/tna"
	SamplePlan              = "/dashboard/erp/samples/plan"
	SampleOperations        = "/dashboard/erp/samples/operations"
	SampleSMV               = "/dashboard/erp/samples/smv"
	SampleMRP               = "/dashboard/erp/samples/mrp"

	Orders     = "/dashboard/erp/orders"
	Production = "/dashboard/erp/production"
	Inventory  = "/dashboard/erp/inventory"
	Reports    = "/dashboard/erp/reports"
	Users      = "/dashboard/erp/users"
	Styles     = "/dashboard/erp/styles"
)

// OrderDetail returns the dashboard page of a single order.
func OrderDetail(orderID int64) string {
	return Orders + "/" + strconv.FormatInt(orderID, 10)
}

// LinkTable is the JSON shape of the dashboard route table.
type LinkTable struct {
	Home           string            `json:"home"`
	Login          string            `json:"login"`
	Register       string            `json:"register"`
	ForgotPassword string            `json:"forgot_password"`
	Dashboard      string            `json:"dashboard"`
	Clients        map[string]string `json:"clients"`
	Samples        map[string]string `json:"samples"`
	Orders         string            `json:"orders"`
	Production     string            `json:"production"`
	Inventory      string            `json:"inventory"`
	Reports        string            `json:"reports"`
	Users          string            `json:"users"`
	Styles         string            `json:"styles"`
}

// Links returns the dashboard route table.
func Links() LinkTable {
	return LinkTable{
		Home:           Home,
		Login:          Login,
		Register:       Register,
		ForgotPassword: ForgotPassword,
		Dashboard:      Dashboard,
		Clients: map[string]string{
			"buyers":    ClientBuyers,
			"suppliers": ClientSuppliers,
			"contacts":  ClientContacts,
			"shipping":  ClientShipping,
			"banking":   ClientBanking,
		},
		Samples: map[string]string{
			"list":               Samples,
			"style_summary":      SampleStyleSummary,
			"style_variants":     SampleStyleVariants,
			"add_material":       SampleAddMaterial,
			"required_materials": SampleRequiredMaterials,
			"primary":            SamplePrimary,
			"tna":                SampleTNA,
			"plan":               SamplePlan,
			"operations":         SampleOperations,
			"smv":                SampleSMV,
			"mrp":                SampleMRP,
		},
		Orders:     Orders,
		Production: Production,
		Inventory:  Inventory,
		Reports:    Reports,
		Users:      Users,
		Styles:     Styles,
	}
}
