//go:build !(js && wasm)

package http

import (
	"net/http"

	"github.com/fivetwenty-io/odata-client/pkg/odata"
)

// applyRequestMode is a no-op outside the browser.
func applyRequestMode(*http.Request, odata.RequestMode) {}
