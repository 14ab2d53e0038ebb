package compare

import (
	"TCPSpectra/internal/flowmon"
	"TCPSpectra/internal/metric"
	"context"
	"errors"
	"os"
)

// ErrInvalidRequest is returned when a comparison request fails validation.
var ErrInvalidRequest = errors.New("invalid comparison request")

// Error kinds reported by Kind.
const (
	KindMissingFlowData    = "missing_flow_data"
	KindMalformedAttribute = "malformed_attribute"
	KindInsufficientData   = "insufficient_data"
	KindDegenerateFairness = "degenerate_fairness"
	KindInvalidWindow      = "invalid_window"
	KindNoPackets          = "no_packets"
	KindInvalidRequest     = "invalid_request"
	KindNotFound           = "not_found"
	KindCanceled           = "canceled"
	KindInternal           = "internal"
)

// Kind classifies err into one of the Kind* constants. It returns "" for nil.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, flowmon.ErrMissingFlowData):
		return KindMissingFlowData
	case errors.Is(err, flowmon.ErrMalformedAttribute):
		return KindMalformedAttribute
	case errors.Is(err, metric.ErrInsufficientData):
		return KindInsufficientData
	case errors.Is(err, metric.ErrDegenerateFairness):
		return KindDegenerateFairness
	case errors.Is(err, metric.ErrInvalidWindow):
		return KindInvalidWindow
	case errors.Is(err, metric.ErrNoPackets):
		return KindNoPackets
	case errors.Is(err, ErrInvalidRequest):
		return KindInvalidRequest
	case errors.Is(err, os.ErrNotExist):
		return KindNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	default:
		return KindInternal
	}
}

// IsDataError reports whether err stems from the input documents or the
// request rather than from the system.
func IsDataError(err error) bool {
	switch Kind(err) {
	case KindMissingFlowData, KindMalformedAttribute, KindInsufficientData,
		KindDegenerateFairness, KindInvalidWindow, KindNoPackets, KindInvalidRequest, KindNotFound:
		return true
	}
	return false
}
