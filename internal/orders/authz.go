package orders

import "fmt"

type Role string

const (
	RoleBuyer      Role = "buyer"
	RoleRestaurant Role = "restaurant"
	RoleAdmin      Role = "admin"
)

// Principal is the authenticated caller as supplied by the identity service.
type Principal struct {
	ID       string
	Role     Role
	Approved bool
	Email    string
}

type Action string

const (
	ActionCreateOrder   Action = "order.create"
	ActionViewOrder     Action = "order.view"
	ActionPayOrder      Action = "order.pay"
	ActionViewPickup    Action = "order.view_pickup"
	ActionUpdateStatus  Action = "order.update_status"
	ActionVerifyPickup  Action = "order.verify_pickup"
	ActionCompleteOrder Action = "order.complete"
)

// Authorize is the single capability check every service operation runs
// before touching state. order may be nil for ActionCreateOrder.
func Authorize(p Principal, action Action, order *Order) error {
	if p.ID == "" {
		return fmt.Errorf("%w: anonymous principal", ErrForbidden)
	}
	if p.Role == RoleAdmin {
		return nil
	}

	switch action {
	case ActionCreateOrder:
		return nil
	case ActionPayOrder, ActionViewPickup:
		if order.BuyerID == p.ID {
			return nil
		}
		return fmt.Errorf("%w: order %s belongs to another buyer", ErrForbidden, order.ID)
	case ActionViewOrder, ActionCompleteOrder:
		if order.BuyerID == p.ID || ownsLine(p, order) {
			return nil
		}
		return fmt.Errorf("%w: not authorized for order %s", ErrForbidden, order.ID)
	case ActionUpdateStatus, ActionVerifyPickup:
		if ownsLine(p, order) {
			return nil
		}
		return fmt.Errorf("%w: restaurant does not own any item of order %s", ErrForbidden, order.ID)
	}
	return fmt.Errorf("%w: unknown action %s", ErrForbidden, action)
}

// ownsLine is true for an approved restaurant that sold at least one line.
func ownsLine(p Principal, order *Order) bool {
	if p.Role != RoleRestaurant || !p.Approved {
		return false
	}
	for _, l := range order.Lines {
		if l.RestaurantID == p.ID {
			return true
		}
	}
	return false
}
