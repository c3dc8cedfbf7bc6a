// Package importer loads garment catalogs into storage.
//
// Catalogs are YAML documents with a top-level garments list; the sample
// catalog of 23 garments is embedded. Garments are validated first, then
// written in batches, one transaction per batch. Only one import runs at a
// time: a concurrent import fails fast with ErrImportInProgress.
//
// # Basic Usage
//
//	im := importer.New(store, catalogService, logger)
//
//	stats, err := im.ImportFile(ctx, "catalog.yaml", &importer.Config{
//	    BatchSize:    50,
//	    SkipExisting: true,
//	})
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("imported %d, skipped %d, invalid %d\n",
//	    stats.GarmentsImported, stats.GarmentsSkipped, stats.GarmentsInvalid)
package importer
