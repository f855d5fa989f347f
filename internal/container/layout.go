package container

import "path/filepath"

// Fixed relative layout of an 8KDVD disc.
const (
	TitleDir     = "8KDVD_TS"
	StreamDir    = "STREAM"
	PlaylistDir  = "PLAYLIST"
	ManifestName = "main.m3u8"
)

// Layout holds the paths derived from a disc root.
type Layout struct {
	Root         string `json:"root"`
	StreamDir    string `json:"stream_dir"`
	PlaylistDir  string `json:"playlist_dir"`
	ManifestPath string `json:"manifest_path"`
}

// LayoutFor derives the disc paths under root.
func LayoutFor(root string) Layout {
	root = filepath.Clean(root)
	title := filepath.Join(root, TitleDir)
	playlist := filepath.Join(title, PlaylistDir)
	return Layout{
		Root:         root,
		StreamDir:    filepath.Join(title, StreamDir),
		PlaylistDir:  playlist,
		ManifestPath: filepath.Join(playlist, ManifestName),
	}
}
