package model

//go:generate go tool stringer -type=Action -linecomment -output=action_string.go

// Status is the lifecycle state of an order.
type Status string

const (
	// StatusPendingConfirmation is the initial state of online orders.
	StatusPendingConfirmation Status = "PENDING_CONFIRMATION"
	// StatusConfirmed means staff approved the order and it is being packed.
	StatusConfirmed Status = "CONFIRMED"
	// StatusShipping means the parcel is with the courier.
	StatusShipping Status = "SHIPPING"
	// StatusPendingPayment is the initial state of point-of-sale orders.
	StatusPendingPayment Status = "PENDING_PAYMENT"
	// StatusCompleted is terminal: delivered or paid at the till.
	StatusCompleted Status = "COMPLETED"
	// StatusCancelled is terminal.
	StatusCancelled Status = "CANCELLED"
)

// Action is a request to move an order to another status.
type Action int

const (
	_ Action = iota // zero value is not a valid action

	ActionApprove         // approve
	ActionShip            // ship
	ActionConfirmDelivery // confirm_delivery
	ActionConfirmPayment  // confirm_payment
	ActionCancel          // cancel
)

type transition struct {
	from []Status
	to   Status
}

// transitions is the complete order workflow. Anything not listed here is
// rejected with an invalid transition error.
var transitions = map[Action]transition{
	ActionApprove:         {from: []Status{StatusPendingConfirmation}, to: StatusConfirmed},
	ActionShip:            {from: []Status{StatusConfirmed}, to: StatusShipping},
	ActionConfirmDelivery: {from: []Status{StatusShipping}, to: StatusCompleted},
	ActionConfirmPayment:  {from: []Status{StatusPendingPayment}, to: StatusCompleted},
	ActionCancel: {
		from: []Status{StatusPendingConfirmation, StatusPendingPayment, StatusConfirmed},
		to:   StatusCancelled,
	},
}

var validStatuses = map[Status]struct{}{
	StatusPendingConfirmation: {},
	StatusConfirmed:           {},
	StatusShipping:            {},
	StatusPendingPayment:      {},
	StatusCompleted:           {},
	StatusCancelled:           {},
}

// ParseStatus converts s into a Status, rejecting unknown values.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if _, ok := validStatuses[status]; !ok {
		return "", ValidationError("status", "unknown order status "+s)
	}
	return status, nil
}

// ParseAction converts an action name such as "confirm_delivery" into an
// Action.
func ParseAction(s string) (Action, error) {
	for action := range transitions {
		if action.String() == s {
			return action, nil
		}
	}
	return 0, ValidationError("action", "unknown order action "+s)
}

// IsTerminal reports whether no action can move the order out of s.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Next returns the status reached by applying action to s.
func (s Status) Next(action Action) (Status, error) {
	t, ok := transitions[action]
	if !ok {
		return s, InvalidTransitionError(s, action)
	}
	for _, from := range t.from {
		if from == s {
			return t.to, nil
		}
	}
	return s, InvalidTransitionError(s, action)
}

// InitialStatus is the status a freshly placed order starts in.
func InitialStatus(channel Channel) Status {
	if channel == ChannelOffline {
		return StatusPendingPayment
	}
	return StatusPendingConfirmation
}
