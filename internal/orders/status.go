package orders

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPaid      Status = "PAID"
	StatusConfirmed Status = "CONFIRMED"
	StatusReady     Status = "READY"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// validNext is the full settlement graph. Who may drive each edge is decided
// by the caller: the payment callback owns PENDING->PAID/CANCELLED, the
// restaurant owns the preparation edges, pickup/completion owns ->COMPLETED.
var validNext = map[Status]map[Status]bool{
	StatusPending:   {StatusPaid: true, StatusCancelled: true},
	StatusPaid:      {StatusConfirmed: true, StatusReady: true, StatusCompleted: true},
	StatusConfirmed: {StatusReady: true, StatusCompleted: true},
	StatusReady:     {StatusCompleted: true},
	StatusCompleted: {},
	StatusCancelled: {},
}

// restaurantNext is the subset a restaurant may request explicitly.
var restaurantNext = map[Status]map[Status]bool{
	StatusPaid:      {StatusConfirmed: true, StatusReady: true},
	StatusConfirmed: {StatusReady: true},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

func CanRestaurantTransition(from, to Status) bool {
	return restaurantNext[from][to]
}

func (s Status) Valid() bool {
	_, ok := validNext[s]
	return ok
}
