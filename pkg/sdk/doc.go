// Package sdk provides a Go client for the relevance HTTP API.
//
// The client mirrors the service's REST surface: hybrid search with
// presets and per-request overrides, document ingestion and removal,
// preset inspection, and health.
//
//	client, _ := sdk.New("http://localhost:8080")
//	resp, _ := client.Search(ctx, sdk.SearchRequest{
//	    Query:   "acme renewal pricing",
//	    Preset:  "highPrecision",
//	    Sources: []string{"opportunities", "documents"},
//	})
//	for _, r := range resp.Results {
//	    fmt.Println(r.ID, r.Score)
//	}
//
// Non-2xx responses come back as *APIError values carrying the API's
// stable error code. Match them with errors.Is against the package
// sentinels:
//
//	_, err := client.Preset(ctx, "nope")
//	if errors.Is(err, sdk.ErrUnknownPreset) {
//	    // fall back to the default preset
//	}
package sdk
