package agent

import (
	"errors"

	orderstransport "concierge_backend/internal/orders/transport"
	"concierge_backend/platform/apperr"
)

const (
	msgMissingIdentity = "Conversation identity is not available. Please reload the chat window."
	msgGenericFailure  = "Something went wrong while processing your request. Please try again."
)

// stepOutput converts a collection step result into the tool envelope.
func stepOutput(res orderstransport.StepResult) StepOutput {
	return StepOutput{
		Status:        res.Status,
		Message:       res.Message,
		MissingFields: res.MissingFields,
		NextStep:      res.NextStep,
		Collected:     collectedData(res.Collected),
		Reference:     res.Reference,
	}
}

func collectedData(c *orderstransport.CollectedData) *CollectedData {
	if c == nil {
		return nil
	}
	return &CollectedData{
		Service:       c.Service,
		Name:          c.Name,
		Age:           c.Age,
		IDNumber:      c.IDNumber,
		Phone:         c.Phone,
		ImageUploaded: c.ImageUploaded,
		ImageVerified: c.ImageVerified,
	}
}

// toolFailure folds a domain error into the envelope. Tools return it
// with a nil error; a bare error would abort the whole model run
// instead of letting the model relay the problem and retry.
func toolFailure(err error) StepOutput {
	return StepOutput{Status: orderstransport.StatusError, Message: userMessage(err)}
}

func identityFailure() StepOutput {
	return StepOutput{Status: orderstransport.StatusError, Message: msgMissingIdentity}
}

// userMessage extracts the user-facing message from a domain error.
// Internal failures are reduced to a generic line; their detail belongs
// in the log, not in the chat.
func userMessage(err error) string {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		return msgGenericFailure
	}
	switch appErr.Kind {
	case apperr.KindInternal, apperr.KindUnknown:
		return msgGenericFailure
	default:
		return appErr.Message
	}
}
