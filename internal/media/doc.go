// Package media stores uploaded media payloads and turns stored media into
// playback URLs.
//
// Uploads are sniffed with Sniff, which reads the first bytes of the stream
// and classifies them into an image, video or audio kind. Payloads are kept
// in an S3 compatible bucket through a BlobStore; MinIOStore is the
// production implementation. Resolver implements the search engine's URL
// resolution: it presigns a GET for the object when a store is configured
// and falls back to the legacy "v1/{kind}/{id}" path otherwise.
package media
