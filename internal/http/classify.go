package http

import (
	"fmt"

	"github.com/fivetwenty-io/stackapi/internal/constants"
	"github.com/fivetwenty-io/stackapi/pkg/stackapi"
)

// Classify turns the outcome of a call into a *stackapi.RemoteError, or nil
// when the call succeeded under the request's requirements.
//
// A transport error wins over any status or shape check. Status is checked
// before shape. Classify has no side effects and returns an equal result
// for equal inputs.
func Classify(transportErr error, resp *Response, req *Request) *stackapi.RemoteError {
	if req == nil {
		req = &Request{}
	}

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}

	var (
		message string
		kind    stackapi.ErrorKind
	)

	switch {
	case transportErr != nil:
		message = transportErr.Error()
		kind = stackapi.ErrorKindTransport
	case req.Require2xx && (status < 200 || status > 299):
		message = fmt.Sprintf("Invalid status (%d) from remote call", status)
		kind = stackapi.ErrorKindStatus
	case req.RequiredPath != "" && !hasRequiredPath(resp, req.RequiredPath):
		message = fmt.Sprintf("Invalid format (%s) missing from remote call", req.RequiredPath)
		kind = stackapi.ErrorKindShape
	default:
		return nil
	}

	return &stackapi.RemoteError{
		Message: message,
		Code:    constants.RemoteErrorCode,
		Kind:    kind,
		Details: remoteDetails(resp, req),
		Err:     transportErr,
	}
}

func hasRequiredPath(resp *Response, path string) bool {
	_, ok := resp.Lookup(path)

	return ok
}

func remoteDetails(resp *Response, req *Request) stackapi.RemoteDetails {
	details := stackapi.RemoteDetails{
		Method:        constants.Indeterminable,
		URI:           constants.Indeterminable,
		RemoteMessage: constants.Indeterminable,
		RemoteCode:    constants.Indeterminable,
		RemoteDetail:  constants.Indeterminable,
	}

	switch {
	case resp != nil && resp.Method != "":
		details.Method = resp.Method
	case req.Method != "":
		details.Method = req.Method
	}

	switch {
	case resp != nil && resp.URL != "":
		details.URI = resp.URL
	case req.URL != "":
		details.URI = req.URL
	case req.Path != "":
		details.URI = req.Path
		if len(req.Query) > 0 {
			details.URI += "?" + req.Query.Encode()
		}
	}

	if resp == nil {
		return details
	}

	details.StatusCode = resp.StatusCode
	details.ResponseTime = resp.Elapsed
	details.RemoteMessage = mineField(resp.Body, resp.Data, "message")
	details.RemoteCode = mineField(resp.Body, resp.Data, "code")
	details.RemoteDetail = mineField(resp.Body, resp.Data, "detail")

	return details
}
