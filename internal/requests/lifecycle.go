package requests

import (
	"fmt"

	"github.com/esteh-pos/stock-console/internal/apperr"
)

// Action is something a requester or the warehouse does to a request.
// ActionCreate and ActionDispatch only label events; Transition never accepts them.
type Action string

const (
	ActionCreate         Action = "create"
	ActionApprove        Action = "approve"
	ActionReject         Action = "reject"
	ActionCancel         Action = "cancel"
	ActionEdit           Action = "edit"
	ActionConfirmReceipt Action = "confirm_receipt"
	ActionDispatch       Action = "dispatch"
)

// Transition returns the status r moves to under a. It is the single
// definition of the request state machine:
//
//	pending  --approve-->         approved
//	pending  --reject-->          rejected
//	pending  --cancel-->          cancelled
//	pending  --edit-->            pending
//	approved --confirm_receipt--> received   (needs a linked shipment)
func Transition(r StockRequest, a Action) (Status, error) {
	switch r.Status {
	case StatusPending:
		switch a {
		case ActionApprove:
			return StatusApproved, nil
		case ActionReject:
			return StatusRejected, nil
		case ActionCancel:
			return StatusCancelled, nil
		case ActionEdit:
			return StatusPending, nil
		}
	case StatusApproved:
		if a == ActionConfirmReceipt {
			if r.LinkedShipmentID == nil {
				return r.Status, fmt.Errorf("%w: request %d has no outgoing shipment yet", apperr.ErrMissingDependency, r.ID)
			}
			return StatusReceived, nil
		}
	}
	return r.Status, fmt.Errorf("%w: cannot %s request %d while %s", apperr.ErrInvalidTransition, a, r.ID, r.Status)
}
