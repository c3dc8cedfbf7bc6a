// Package finder answers natural-language garment requests.
//
// A search runs in four steps:
//   - Analysis: the query is normalized and keywords and structured criteria
//     are extracted, concurrently, against the lexicon
//   - Reconciliation: when no category was recognized, the language model's
//     first garment suggestion fills it
//   - Lookup: the reconciled criteria select garments from the catalog
//   - Reply: the model discusses the matches, or a plain listing is rendered
//     when no model is configured or the model fails
//
// # Basic Usage
//
//	f := finder.New(analyzer, catalogService, advisor, finder.Options{Eager: true}, logger)
//
//	resp, err := f.Find(ctx, finder.Request{
//	    Query: "I need a silk saree for a wedding",
//	    Limit: 5,
//	})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(resp.Criteria) // category=Saree,fabric_type=Silk,occasion=Wedding
//
// # Eager Suggestions
//
// With Options.Eager the model suggestion starts before extraction and runs
// alongside it. Otherwise the model is only asked when the query names no
// category. A model failure never fails a search: the category stays
// unconstrained and the failure is logged.
package finder
