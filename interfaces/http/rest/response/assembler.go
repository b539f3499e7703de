// Package response assembles query results and version metadata into HTTP
// responses. It performs no business logic.
package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"forecast-backend/application/queries"
	"forecast-backend/application/query"
	appversioning "forecast-backend/application/versioning"
)

// Header names attached to every versioned response.
const (
	HeaderSupportedVersions  = "api-supported-versions"
	HeaderDeprecatedVersions = "api-deprecated-versions"
)

// Response is an assembled, not yet written, HTTP response.
type Response struct {
	Status int
	Header http.Header
	Body   interface{}
}

// CountedBody wraps items when the client asked for $count.
type CountedBody struct {
	Items      []query.Entity `json:"items"`
	TotalCount int            `json:"totalCount"`
}

// Assembler builds responses for the forecast endpoints.
type Assembler struct {
	cacheMaxAge time.Duration
}

// NewAssembler creates an assembler. cacheMaxAge applies to cacheable results.
func NewAssembler(cacheMaxAge time.Duration) *Assembler {
	return &Assembler{cacheMaxAge: cacheMaxAge}
}

// VersionHeaders returns the version report headers. Empty lists are omitted.
func (a *Assembler) VersionHeaders(report appversioning.Report) http.Header {
	h := make(http.Header)
	if v := report.SupportedHeader(); v != "" {
		h.Set(HeaderSupportedVersions, v)
	}
	if v := report.DeprecatedHeader(); v != "" {
		h.Set(HeaderDeprecatedVersions, v)
	}
	return h
}

// Assemble builds the success response. The result is only read.
func (a *Assembler) Assemble(report appversioning.Report, result *queries.ListForecastsResult) Response {
	header := a.VersionHeaders(report)
	header.Set("Content-Type", "application/json; charset=utf-8")
	if result.Cached {
		header.Set("Cache-Control", fmt.Sprintf("public,max-age=%d", int(a.cacheMaxAge.Seconds())))
	}

	items := result.Result.Items
	if items == nil {
		items = []query.Entity{}
	}

	var body interface{} = items
	if result.CountRequested() {
		body = CountedBody{Items: items, TotalCount: *result.Result.TotalCount}
	}

	return Response{Status: http.StatusOK, Header: header, Body: body}
}

// Write sends an assembled response. Its headers replace any already set.
func Write(w http.ResponseWriter, resp Response) error {
	for k, values := range resp.Header {
		w.Header()[k] = values
	}
	w.WriteHeader(resp.Status)
	return json.NewEncoder(w).Encode(resp.Body)
}
