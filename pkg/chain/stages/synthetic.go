package stages

import (
	"net/http"
	"strconv"

	"helios-hq/relay/pkg/chain"
)

// syntheticResponse builds the minimal response a stage serves when it
// short-circuits: a status code, an empty body, and just enough headers for
// the client to parse it.
func syntheticResponse(status int) *chain.Response {
	header := make(http.Header)
	header.Set("Content-Length", strconv.Itoa(0))
	return &chain.Response{
		StatusCode: status,
		Header:     header,
		Body:       []byte{},
	}
}
