// Package feed generates the RSS 2.0 feed for the blog.
package feed

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/caspervonb/blogsmith/internal/content"
)

type rss struct {
	XMLName xml.Name `xml:"rss"`
	Version string   `xml:"version,attr"`
	Channel channel  `xml:"channel"`
}

type channel struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	Items       []item `xml:"item"`
}

type item struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	GUID        string `xml:"guid"`
	PubDate     string `xml:"pubDate"`
	Description string `xml:"description,omitempty"`
}

// Options configures feed generation.
type Options struct {
	Title       string
	Description string
	BaseURL     string
	Limit       int
}

// Generate renders the RSS document for posts, which must already be sorted
// by descending date. At most opts.Limit items are emitted.
func Generate(opts Options, posts []*content.Post) ([]byte, error) {
	limit := opts.Limit
	if limit <= 0 || limit > len(posts) {
		limit = len(posts)
	}

	base := strings.TrimSuffix(opts.BaseURL, "/")
	items := make([]item, 0, limit)
	for _, p := range posts[:limit] {
		link := base + p.Permalink
		items = append(items, item{
			Title:       p.Meta.Title,
			Link:        link,
			GUID:        link,
			PubDate:     p.Meta.Date.Format(time.RFC1123Z),
			Description: string(p.Excerpt),
		})
	}

	doc := rss{
		Version: "2.0",
		Channel: channel{
			Title:       opts.Title,
			Link:        base + "/",
			Description: opts.Description,
			Items:       items,
		},
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal feed: %w", err)
	}
	return append([]byte(xml.Header), append(out, '\n')...), nil
}
