// Package mediatypes classifies uploaded files by MIME type.
//
// This package is a dependency-free foundation that the upload path, the
// blob store and the handlers share without creating import cycles. It maps
// a sniffed MIME type to the media kind a content item stores, and to the
// file extension used when naming stored objects.
//
// # Media Kinds
//
//	kind, ok := mediatypes.Classify("image/png") // models.MediaImage, true
//	kind, ok  = mediatypes.Classify("text/plain") // "", false
//
// # Supported Formats
//
// Images: png, jpeg, bmp, webp. Videos: mp4, ogg, webm, matroska, avi.
// Audio: mp3, ogg, wav. The tables (ImageTypes, VideoTypes, AudioTypes) can
// be used directly for validation or iteration:
//
//	if mediatypes.VideoTypes[mime] {
//	    // File is a supported video
//	}
package mediatypes
