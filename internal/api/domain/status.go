package domain

import "fmt"

// Status is the job lifecycle state. The string values are a stable
// wire contract and must not change.
type Status string

const (
	StatusPendingSupplierAcceptance Status = "pending_supplier_acceptance"
	StatusSupplierAccepted          Status = "supplier_accepted"
	StatusSentToEngineer            Status = "sent_to_engineer"
	StatusEngineerAccepted          Status = "engineer_accepted"
	StatusEnRoute                   Status = "en_route"
	StatusOnSite                    Status = "on_site"
	StatusCompleted                 Status = "completed"
	StatusCancelled                 Status = "cancelled"
	StatusDeclined                  Status = "declined"

	// Legacy simplified path kept for older records.
	StatusAssignedToSupplier Status = "assigned_to_supplier"
	StatusAccepted           Status = "accepted"
)

// Action is a requested lifecycle transition.
type Action string

const (
	ActionSupplierAccept  Action = "supplier_accept"
	ActionAssignEngineer  Action = "assign_engineer"
	ActionEngineerAccept  Action = "engineer_accept"
	ActionEngineerDecline Action = "engineer_decline"
	ActionEnRoute         Action = "en_route"
	ActionOnSite          Action = "on_site"
	ActionComplete        Action = "complete"
	ActionCancel          Action = "cancel"
	ActionDecline         Action = "decline"
)

// transitions is the exhaustive edge table: state x action -> next state.
// A missing entry means the transition is invalid. Terminal statuses
// have no outgoing edges at all.
var transitions = map[Status]map[Action]Status{
	StatusPendingSupplierAcceptance: {
		ActionSupplierAccept: StatusSupplierAccepted,
		ActionCancel:         StatusCancelled,
		ActionDecline:        StatusDeclined,
	},
	StatusSupplierAccepted: {
		ActionAssignEngineer: StatusSentToEngineer,
		ActionCancel:         StatusCancelled,
		ActionDecline:        StatusDeclined,
	},
	StatusSentToEngineer: {
		ActionEngineerAccept:  StatusEngineerAccepted,
		ActionEngineerDecline: StatusSupplierAccepted,
		ActionCancel:          StatusCancelled,
		ActionDecline:         StatusDeclined,
	},
	StatusEngineerAccepted: {
		ActionEnRoute: StatusEnRoute,
		ActionCancel:  StatusCancelled,
		ActionDecline: StatusDeclined,
	},
	StatusEnRoute: {
		ActionOnSite: StatusOnSite,
		ActionCancel: StatusCancelled,
	},
	StatusOnSite: {
		ActionComplete: StatusCompleted,
		ActionCancel:   StatusCancelled,
	},

	// Legacy path: assigned_to_supplier -> accepted -> en_route -> on_site.
	StatusAssignedToSupplier: {
		ActionSupplierAccept: StatusAccepted,
		ActionCancel:         StatusCancelled,
		ActionDecline:        StatusDeclined,
	},
	StatusAccepted: {
		ActionEnRoute: StatusEnRoute,
		ActionCancel:  StatusCancelled,
		ActionDecline: StatusDeclined,
	},

	// Terminal.
	StatusCompleted: {},
	StatusCancelled: {},
	StatusDeclined:  {},
}

// Next resolves the transition table for the given status and action.
// Returns ErrInvalidTransition when no edge exists; it never no-ops.
func Next(current Status, action Action) (Status, error) {
	edges, ok := transitions[current]
	if !ok {
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, current)
	}

	next, ok := edges[action]
	if !ok {
		return "", fmt.Errorf("%w: no edge for action %q from status %q", ErrInvalidTransition, action, current)
	}

	return next, nil
}

// IsTerminal reports whether the status has no outgoing edges.
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// ParseStatus validates a wire status string.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if _, ok := transitions[status]; !ok {
		return "", fmt.Errorf("unknown job status: %q", s)
	}
	return status, nil
}

// AllStatuses returns every defined status. Used by tests and the
// schema seed to keep the enum and the table in lockstep.
func AllStatuses() []Status {
	statuses := make([]Status, 0, len(transitions))
	for s := range transitions {
		statuses = append(statuses, s)
	}
	return statuses
}
