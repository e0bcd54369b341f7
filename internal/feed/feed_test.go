package feed

import (
	"encoding/xml"
	"html/template"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caspervonb/blogsmith/internal/content"
)

func makePosts(n int) []*content.Post {
	posts := make([]*content.Post, 0, n)
	for i := 0; i < n; i++ {
		posts = append(posts, &content.Post{
			Meta: content.Metadata{
				Title: "Post",
				Date:  time.Date(2014, time.March, 1+i, 0, 0, 0, 0, time.UTC),
			},
			Permalink: "/2014/03/post/",
			Excerpt:   template.HTML("<p>Excerpt</p>"),
		})
	}
	return posts
}

func TestGenerate(t *testing.T) {
	out, err := Generate(Options{
		Title:       "Test Blog",
		Description: "A test blog",
		BaseURL:     "https://example.com/",
		Limit:       20,
	}, makePosts(2))
	require.NoError(t, err)

	var doc struct {
		Channel struct {
			Title string `xml:"title"`
			Link  string `xml:"link"`
			Items []struct {
				Link    string `xml:"link"`
				PubDate string `xml:"pubDate"`
			} `xml:"item"`
		} `xml:"channel"`
	}
	require.NoError(t, xml.Unmarshal(out, &doc))

	assert.Equal(t, "Test Blog", doc.Channel.Title)
	assert.Equal(t, "https://example.com/", doc.Channel.Link)
	require.Len(t, doc.Channel.Items, 2)
	assert.Equal(t, "https://example.com/2014/03/post/", doc.Channel.Items[0].Link)

	_, err = time.Parse(time.RFC1123Z, doc.Channel.Items[0].PubDate)
	assert.NoError(t, err)
}

func TestGenerateRespectsLimit(t *testing.T) {
	out, err := Generate(Options{Title: "T", BaseURL: "https://example.com", Limit: 3}, makePosts(10))
	require.NoError(t, err)

	var doc struct {
		Channel struct {
			Items []struct{} `xml:"item"`
		} `xml:"channel"`
	}
	require.NoError(t, xml.Unmarshal(out, &doc))
	assert.Len(t, doc.Channel.Items, 3)
}

func TestGenerateEmpty(t *testing.T) {
	out, err := Generate(Options{Title: "T", BaseURL: "https://example.com"}, nil)
	require.NoError(t, err)
	assert.Contains(t, string(out), "<rss")
}
