package registry

import (
	"fmt"

	"github.com/geekskaran/Cattel-Backend/src/internal/apperrors"
	"github.com/geekskaran/Cattel-Backend/src/internal/database/models"
)

// event names a verification transition
type event string

const (
	eventForward event = "forward"
	eventDeny    event = "deny"
	eventApprove event = "approve"
	eventReject  event = "reject"
)

// transitions is the verification state machine. Anything not listed is an
// invalid transition and is rejected with a conflict.
var transitions = map[models.VerificationStatus]map[event]models.VerificationStatus{
	models.VerificationPendingRegionalReview: {
		eventForward: models.VerificationForwardedToMAdmin,
		eventDeny:    models.VerificationDeniedByRegional,
	},
	models.VerificationForwardedToMAdmin: {
		eventApprove: models.VerificationApproved,
		eventReject:  models.VerificationRejected,
	},
}

// nextState resolves the target state for an event, or a conflict error
// when the event is not allowed from the current state.
func nextState(current models.VerificationStatus, ev event) (models.VerificationStatus, error) {
	if targets, ok := transitions[current]; ok {
		if next, ok := targets[ev]; ok {
			return next, nil
		}
	}
	return "", apperrors.Conflict(
		fmt.Sprintf("cannot %s a record in state %q", ev, current),
		"cattle",
	).WithDetail("current_status", string(current))
}
