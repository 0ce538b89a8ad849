package api

import (
	"encoding/xml"
	"net/http"
	"time"
)

const (
	sitemapNS      = "http://www.sitemaps.org/schemas/sitemap/0.9"
	sitemapImageNS = "http://www.google.com/schemas/sitemap-image/1.1"
)

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	Image   string       `xml:"xmlns:image,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string        `xml:"loc"`
	LastMod    string        `xml:"lastmod"`
	ChangeFreq string        `xml:"changefreq,omitempty"`
	Priority   string        `xml:"priority"`
	Image      *sitemapImage `xml:"image:image,omitempty"`
}

type sitemapImage struct {
	Loc     string `xml:"image:loc"`
	Caption string `xml:"image:caption"`
}

func (s *Server) sitemap(w http.ResponseWriter, r *http.Request) {
	entries, err := s.deps.Catalog.All(r.Context())
	if err != nil {
		s.log.Error("sitemap query failed", "error", err)
		http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
		return
	}

	now := s.now().Format(time.RFC3339)
	set := urlSet{
		Xmlns: sitemapNS,
		Image: sitemapImageNS,
		URLs:  make([]sitemapURL, 0, len(entries)+1),
	}
	set.URLs = append(set.URLs, sitemapURL{Loc: s.appURL + "/", LastMod: now, Priority: "1.0"})
	for _, e := range entries {
		u := sitemapURL{
			Loc:        s.filmURL(e.Movie),
			LastMod:    now,
			ChangeFreq: "weekly",
			Priority:   "0.8",
		}
		if !e.UpdatedAt.IsZero() {
			u.LastMod = e.UpdatedAt.Format(time.RFC3339)
		}
		if e.Poster.URL != nil && *e.Poster.URL != "" {
			u.Image = &sitemapImage{Loc: *e.Poster.URL, Caption: e.Title + " poster"}
		}
		set.URLs = append(set.URLs, u)
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	_, _ = w.Write([]byte(xml.Header))
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		s.log.Error("sitemap encode failed", "error", err)
	}
}
