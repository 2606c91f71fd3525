// Package relevance embeds the CRM relevance engine in-process: hybrid
// keyword + vector retrieval over Redis or Valkey search backends, with
// preset-driven scoring and per-call overrides. relevanced serves the
// same engine over HTTP for out-of-process callers.
//
// # Direct calls
//
//	client, _ := relevance.New(
//	    relevance.WithRedis("localhost:6379", ""),
//	    relevance.WithEmbedder(embedder),
//	)
//	defer client.Close()
//
//	client.Index(ctx, relevance.Document{
//	    ID: "deal-7", Source: "opportunities",
//	    Title: "Acme renewal", Body: "...",
//	})
//	resp, _ := client.Search(ctx, "acme contract renewal", &relevance.SearchOptions{
//	    Preset: "agent", Limit: 5,
//	})
//
// # Fluent queries with overrides
//
//	resp, _ := client.Query("acme contract renewal").
//	    Preset("highRecall").
//	    Sources("documents", "messages").
//	    MinScore(0.2).
//	    Limit(10).
//	    Do(ctx)
package relevance
