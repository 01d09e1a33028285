package scratch

// NavItem is a single entry of the navigation bar
type NavItem struct {
	Label string `json:"label"`
	Href  string `json:"href"`
	// Action items submit to Href instead of navigating to it
	Action bool `json:"action,omitempty"`
	Active bool `json:"active,omitempty"`
}

// NavBar is the view model for the shell header
type NavBar struct {
	Brand        NavItem   `json:"brand"`
	Items        []NavItem `json:"items"`
	ActiveKey    string    `json:"active_key"`
	Collapsed    bool      `json:"collapsed"`
	ToggleTarget string    `json:"toggle_target"`
}

// DefaultBrand is the label of the brand link
const DefaultBrand = "Scratch"

const navToggleTarget = "shell-navbar-collapse"

// BuildNavBar returns the navigation bar for the given auth state. The
// current path only drives highlighting.
func BuildNavBar(authenticated bool, currentPath string, routes Routes, brand string) NavBar {
	if brand == "" {
		brand = DefaultBrand
	}

	var items []NavItem
	if authenticated {
		items = []NavItem{
			{Label: "Settings", Href: routes.Settings},
			{Label: "Logout", Href: routes.Logout, Action: true},
		}
	} else {
		items = []NavItem{
			{Label: "Signup", Href: routes.Signup},
			{Label: "Login", Href: routes.Login},
		}
	}

	for i := range items {
		items[i].Active = !items[i].Action && items[i].Href == currentPath
	}

	return NavBar{
		Brand:        NavItem{Label: brand, Href: routes.Home},
		Items:        items,
		ActiveKey:    currentPath,
		Collapsed:    true,
		ToggleTarget: navToggleTarget,
	}
}

// Labels returns the item labels in display order
func (n NavBar) Labels() []string {
	labels := make([]string, 0, len(n.Items))
	for _, item := range n.Items {
		labels = append(labels, item.Label)
	}
	return labels
}

// Has reports whether the bar contains an item with the given label
func (n NavBar) Has(label string) bool {
	for _, item := range n.Items {
		if item.Label == label {
			return true
		}
	}
	return false
}
