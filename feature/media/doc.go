// Package media uploads images, videos and files referenced by a spec to the
// tenant object store and returns the storage key items refer to.
//
// Sources are local paths or http(s) URLs. HLS playlists (.m3u8) are remuxed to
// mp4 with ffmpeg when it is installed; without it they are rejected with
// ErrTranscoderUnavailable. Uploaded images are registered with the API so that
// it renders their variants. Results are cached per (source, file name) for the
// lifetime of the Service, so a source is uploaded at most once per run.
package media
