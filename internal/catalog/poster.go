package catalog

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// PosterSizes are the TMDb widths offered in a srcset, smallest first.
var PosterSizes = []string{"w154", "w342", "w500", "w780"}

// DefaultPosterSize is the width used for the main poster URL.
const DefaultPosterSize = "w500"

// PosterURLer resolves a TMDb poster path to an absolute image URL.
type PosterURLer interface {
	PosterURL(ctx context.Context, posterPath, size string) (string, error)
}

// Poster is the image payload attached to every served movie.
type Poster struct {
	URL    *string       `json:"url"`
	Srcset []SrcsetEntry `json:"srcset"`
	Alt    string        `json:"alt"`
}

type SrcsetEntry struct {
	Size string `json:"size"`
	URL  string `json:"url"`
}

// PosterBuilder derives Poster payloads, preferring local copies under
// AssetsDir over TMDb hosted images.
type PosterBuilder struct {
	AppURL     string
	AssetsDir  string
	UseRemote  bool
	Remote     PosterURLer // may be nil
	fileExists func(string) bool
}

// NewPosterBuilder creates a builder. remote may be nil.
func NewPosterBuilder(appURL, assetsDir string, useRemote bool, remote PosterURLer) *PosterBuilder {
	return &PosterBuilder{
		AppURL:    strings.TrimRight(appURL, "/"),
		AssetsDir: assetsDir,
		UseRemote: useRemote,
		Remote:    remote,
	}
}

func (b *PosterBuilder) exists(rel string) bool {
	if b.fileExists != nil {
		return b.fileExists(rel)
	}
	_, err := os.Stat(filepath.Join(b.AssetsDir, filepath.FromSlash(rel)))
	return err == nil
}

func (b *PosterBuilder) localURL(rel string) string {
	return b.AppURL + "/" + strings.TrimLeft(rel, "/")
}

// remoteURL returns "" when TMDb cannot build the URL for any reason.
func (b *PosterBuilder) remoteURL(ctx context.Context, posterPath, size string) string {
	if b.Remote == nil || posterPath == "" {
		return ""
	}
	u, err := b.Remote.PosterURL(ctx, posterPath, size)
	if err != nil {
		return ""
	}
	return u
}

// LocalVariant inserts ".<size>" before the extension of a local poster
// path: "posters/cache/matrix-1999.jpg" -> "posters/cache/matrix-1999.w342.jpg".
func LocalVariant(local, size string) string {
	ext := path.Ext(local)
	return strings.TrimSuffix(local, ext) + "." + size + ext
}

// Build returns the poster payload for m. It never fails: missing images
// simply leave URL nil and the srcset shorter.
func (b *PosterBuilder) Build(ctx context.Context, m *Movie) Poster {
	var local, remote string
	if m.PosterPathLocal != nil {
		local = *m.PosterPathLocal
	}
	if m.PosterPathRemote != nil {
		remote = *m.PosterPathRemote
	}

	p := Poster{Srcset: []SrcsetEntry{}, Alt: m.Title + " poster"}
	switch {
	case local != "":
		u := b.localURL(local)
		p.URL = &u
	case b.UseRemote && remote != "":
		if u := b.remoteURL(ctx, remote, DefaultPosterSize); u != "" {
			p.URL = &u
		}
	}

	for _, size := range PosterSizes {
		var src string
		if local != "" {
			if variant := LocalVariant(local, size); b.exists(variant) {
				src = b.localURL(variant)
			}
		}
		if src == "" {
			src = b.remoteURL(ctx, remote, size)
		}
		if src != "" {
			p.Srcset = append(p.Srcset, SrcsetEntry{Size: size, URL: src})
		}
	}
	return p
}
