// Package navigation builds the dashboard sidebar for a signed-in user.
package navigation

import (
	"github.com/southern-apparels/sa-erp/internal/access"
	"github.com/southern-apparels/sa-erp/internal/routes"
)

// Item is one sidebar entry. Items with children link to "#".
type Item struct {
	Title     string `json:"title"`
	Href      string `json:"href"`
	Icon      string `json:"icon,omitempty"`
	AdminOnly bool   `json:"admin_only,omitempty"`
	NewTab    bool   `json:"new_tab,omitempty"`
	Active    bool   `json:"active,omitempty"`
	Items     []Item `json:"items,omitempty"`

	dept access.Department
}

// Group is a labelled block of items.
type Group struct {
	Title string `json:"title"`
	Items []Item `json:"items"`
}

// Menu returns the full sidebar before filtering.
func Menu() []Group {
	return []Group{{
		Title: "Main Menu",
		Items: []Item{
			{
				Title: "Client Info", Href: "#", Icon: "users", dept: access.ClientInfo,
				Items: []Item{
					{Title: "Buyer Info", Href: routes.ClientBuyers, Icon: "users"},
					{Title: "Supplier Info", Href: routes.ClientSuppliers, Icon: "building-2"},
					{Title: "Contact Info", Href: routes.ClientContacts, Icon: "contact"},
					{Title: "Shipping Info", Href: routes.ClientShipping, Icon: "ship"},
					{Title: "Banking Info", Href: routes.ClientBanking, Icon: "landmark"},
				},
			},
			{
				Title: "Sample Department", Href: "#", Icon: "clipboard-check", dept: access.SampleDepartment,
				Items: []Item{
					{Title: "Style Summary", Href: routes.SampleStyleSummary, Icon: "file-text"},
					{Title: "Style Variants", Href: routes.SampleStyleVariants, Icon: "palette"},
					{Title: "Add Material", Href: routes.SampleAddMaterial, Icon: "package"},
					{Title: "Required Materials", Href: routes.SampleRequiredMaterials, Icon: "box"},
					{Title: "Sample Primary Info", Href: routes.SamplePrimary, Icon: "clipboard-check"},
					{Title: "Sample TNA", Href: routes.SampleTNA, Icon: "calendar"},
					{Title: "Sample Plan", Href: routes.SamplePlan, Icon: "shopping-bag"},
					{Title: "Add New Operation", Href: routes.SampleOperations, Icon: "settings"},
					{Title: "SMV Calculation", Href: routes.SampleSMV, Icon: "calculator"},
					{Title: "Material Requirement", Href: routes.SampleMRP, Icon: "package"},
				},
			},
			{
				Title: "Order Info", Href: "#", Icon: "folder-dot", dept: access.Orders,
				Items: []Item{
					{Title: "Orders", Href: routes.Orders, Icon: "folder-dot"},
					{Title: "Production Planning", Href: routes.Production, Icon: "calendar"},
					{Title: "Store & Inventory", Href: routes.Inventory, Icon: "archive-restore"},
					{Title: "Reports", Href: routes.Reports, Icon: "chart-pie"},
				},
			},
			{Title: "User Management", Href: routes.Users, Icon: "shield", AdminOnly: true},
		},
	}}
}

// Filter drops the items the user may not see. Children inherit their parent's
// department. A nil user gets an empty menu.
func Filter(groups []Group, user *access.User) []Group {
	if user == nil {
		return []Group{}
	}
	out := make([]Group, 0, len(groups))
	for _, g := range groups {
		items := make([]Item, 0, len(g.Items))
		for _, item := range g.Items {
			if item.dept != "" && !access.HasDepartmentAccess(user, item.dept) {
				continue
			}
			if item.AdminOnly && !user.IsSuperuser {
				continue
			}
			items = append(items, item)
		}
		out = append(out, Group{Title: g.Title, Items: items})
	}
	return out
}

// MarkActive flags the entries whose href equals path.
func MarkActive(groups []Group, path string) []Group {
	for gi := range groups {
		groups[gi].Items = markItems(groups[gi].Items, path)
	}
	return groups
}

func markItems(items []Item, path string) []Item {
	out := make([]Item, len(items))
	for i, item := range items {
		item.Active = item.Href == path
		if len(item.Items) > 0 {
			item.Items = markItems(item.Items, path)
		}
		out[i] = item
	}
	return out
}
