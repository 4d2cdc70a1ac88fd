// Package nav builds the navigation menu shown for the current session.
package nav

import "github.com/joestump/feedback-web/internal/session"

// Item is one menu entry. A Divider item has no label or link. Post items
// are rendered as a form button because they change state.
type Item struct {
	Label   string
	Href    string
	Icon    string
	Divider bool
	Post    bool
}

// Menu is the right-hand navigation. Guests get top-level links; signed-in
// users get a dropdown labelled with their name.
type Menu struct {
	Guest bool
	Label string
	Icon  string
	Items []Item
}

var divider = Item{Divider: true}

// Build returns the menu for u. A nil user is a guest.
func Build(u *session.User) Menu {
	if u == nil {
		return Menu{
			Guest: true,
			Items: []Item{
				{Label: "Login", Href: "/auth/login", Icon: "bi bi-box-arrow-in-right"},
				{Label: "Register", Href: "/auth/register", Icon: "bi bi-person-plus"},
			},
		}
	}

	items := []Item{
		{Label: "Dashboard", Href: "/dashboard", Icon: "bi bi-speedometer2"},
		{Label: "Profile", Href: "/profile", Icon: "bi bi-person"},
	}
	if u.HasSubmittedFeedback {
		items = append(items, Item{Label: "My Feedback", Href: "/feedback/my-feedback", Icon: "bi bi-list-ul"})
	} else {
		items = append(items, Item{Label: "Complete Welcome Feedback", Href: "/feedback/welcome", Icon: "bi bi-chat-dots"})
	}
	if u.IsAdmin() {
		items = append(items,
			divider,
			Item{Label: "Admin Dashboard", Href: "/admin/dashboard", Icon: "bi bi-shield-check"},
			Item{Label: "Manage Users", Href: "/admin/users", Icon: "bi bi-people"},
			Item{Label: "Manage Feedback", Href: "/admin/feedback", Icon: "bi bi-chat-square-text"},
		)
	}
	items = append(items,
		divider,
		Item{Label: "Logout", Href: "/auth/logout", Icon: "bi bi-box-arrow-right", Post: true},
	)

	return Menu{Label: u.Name, Icon: "bi bi-person-circle", Items: items}
}
