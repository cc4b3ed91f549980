// Package certportal implements a certificate issuance and self-service
// retrieval portal: administrators publish PDF certificates per event,
// recipients look them up by identifier or name and are redirected to the
// stored file.
//
// The package is organized around a Service interface constructed with
// functional options:
//
//	svc, err := certportal.New(
//	    certportal.WithRepository(memory.New()),
//	    certportal.WithBlobStore(memorystorage.New()),
//	    certportal.WithBucketURL("https://pub-abc.r2.dev"),
//	)
//
// Relational state (events, certificates, download counters) lives behind
// the Repository interface; PDF bytes live behind the BlobStore interface
// under keys of the form "{event-slug}/{filename}". Implementations are
// provided under repo/ (memory, postgres) and storage/ (memory, s3).
//
// The central operation is ResolveDownload, which increments the
// certificate's download counter best-effort and returns the public URL
// the HTTP layer redirects to. Counter failures never block the download
// path.
package certportal
