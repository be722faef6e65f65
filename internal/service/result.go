package service

import (
	"fmt"
	"strings"

	"github.com/nerrad567/gray-logic-switchd/internal/model"
	"github.com/nerrad567/gray-logic-switchd/internal/openflow"
)

// Result is the outcome of one operation, delivered once through its future.
type Result struct {
	Success bool `json:"success"`

	// Payload is set on success.
	Payload *Output `json:"payload,omitempty"`

	// Errors lists what went wrong, in the order reported.
	Errors []DeviceError `json:"errors,omitempty"`

	// Err is the taxonomy sentinel (or a wrapped transport error) on failure.
	Err error `json:"-"`
}

// Output describes an acknowledged operation.
type Output struct {
	TransactionID uint32     `json:"xid"`
	Kind          model.Kind `json:"kind"`
	Op            model.Op   `json:"op"`
	EntityID      string     `json:"entity_id"`
	Path          string     `json:"path"`
}

// DeviceError is one error description. Type and Code are set when the
// device reported the error itself.
type DeviceError struct {
	Type    string `json:"type,omitempty"`
	Code    uint16 `json:"code,omitempty"`
	Message string `json:"message"`
}

func (e DeviceError) String() string {
	if e.Type == "" {
		return e.Message
	}
	if e.Message == "" {
		return fmt.Sprintf("%s/%d", e.Type, e.Code)
	}
	return fmt.Sprintf("%s/%d: %s", e.Type, e.Code, e.Message)
}

// FormatErrors joins the error list for logging.
func (r Result) FormatErrors() string {
	parts := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		parts[i] = e.String()
	}
	return strings.Join(parts, "; ")
}

func success(out Output) Result {
	return Result{Success: true, Payload: &out}
}

func failure(err error) Result {
	return Result{Err: err, Errors: []DeviceError{{Message: err.Error()}}}
}

func rejected(msg *openflow.ErrorMsg) Result {
	return Result{
		Err: ErrDeviceRejected,
		Errors: []DeviceError{{
			Type:    msg.TypeName(),
			Code:    msg.Code,
			Message: msg.Data,
		}},
	}
}
