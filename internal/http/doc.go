// Package http wraps the plain HTTP side of the downloader: streaming
// artwork files from the CDN to disk, probing file sizes, and fetching
// small assets into memory for post-processing.
//
// Failures caused by the server (a non-200 status) are reported as
// *StatusError so callers can tell a transport problem apart from metadata
// errors:
//
//	var statusErr *http.StatusError
//	if errors.As(err, &statusErr) {
//	    // the CDN said no; the metadata pipeline is fine
//	}
package http
