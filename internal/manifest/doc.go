// Package manifest scans 8KDVD playlists (HLS-style main.m3u8 files) into
// ordered stream descriptors.
//
// Each non-blank, non-comment line is a media reference; only its basename is
// significant and it is classified by container extension. Lines that do not
// classify are dropped without error. EXT-X-STREAM-INF directives preceding a
// reference supply its bandwidth, resolution, and codecs; when absent the tier
// defaults apply. Scanning stops at the configured limit (4 on reference
// players, zero for unlimited).
package manifest
