// Package download turns batch job lists into files on disk.
//
// A batch is parsed from CSV into Jobs, each naming an app, a preferred
// asset spec, an optional fallback spec, and an optional output path. The
// Manager then fetches metadata for every distinct app in one coalesced
// call and downloads the resolved assets concurrently:
//
//	jobs, err := download.ParseJobs(file, ',')
//	manager := download.NewManager(settings, fetcher, onProgress)
//	err = manager.Run(ctx, jobs)
//
// Jobs whose asset is absent from the metadata (in both the preferred and
// fallback spec) are skipped with a warning; only metadata and transport
// failures count as errors.
package download
