//go:build js && wasm

package http

import (
	"net/http"

	"github.com/fivetwenty-io/odata-client/internal/constants"
	"github.com/fivetwenty-io/odata-client/pkg/odata"
)

// applyRequestMode forwards the mode to the browser Fetch API, which the wasm
// transport reads from this pseudo header.
func applyRequestMode(req *http.Request, mode odata.RequestMode) {
	req.Header.Set(constants.HeaderFetchMode, string(mode.OrDefault()))
}
