package feed_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/aggregator/internal/feed"
)

const rssFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/">
<channel>
  <title>Example News</title>
  <link>https://example.com</link>
  <item>
    <title>First story</title>
    <link>https://example.com/first</link>
    <author>editor@example.com (Ed Itor)</author>
    <pubDate>Tue, 05 Mar 2024 10:00:00 GMT</pubDate>
    <description>Short teaser</description>
    <content:encoded><![CDATA[<p>Full <b>body</b> of the first story.</p><script>x()</script>]]></content:encoded>
  </item>
  <item>
    <title>No link</title>
    <guid isPermaLink="false">urn:abc</guid>
    <description>Dropped</description>
  </item>
  <item>
    <title>Guid link</title>
    <guid>https://example.com/guid-link</guid>
    <description><![CDATA[<p>Only a description</p>]]></description>
  </item>
  <item>
    <title>Third</title>
    <link>https://example.com/third</link>
  </item>
</channel>
</rss>`

func TestParseFeed_RSS(t *testing.T) {
	t.Parallel()

	items, err := feed.ParseFeed(context.Background(), rssFeed, 0)
	require.NoError(t, err)
	require.Len(t, items, 3)

	first := items[0]
	assert.Equal(t, "https://example.com/first", first.URL)
	assert.Equal(t, "First story", first.Title)
	assert.Equal(t, "Full body of the first story.", first.Text)
	require.NotNil(t, first.PublishedAt)
	assert.True(t, first.PublishedAt.Equal(time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)))

	assert.Equal(t, "https://example.com/guid-link", items[1].URL)
	assert.Equal(t, "Only a description", items[1].Text)
	assert.Empty(t, items[2].Text)
}

func TestParseFeed_MaxItems(t *testing.T) {
	t.Parallel()

	items, err := feed.ParseFeed(context.Background(), rssFeed, 2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "https://example.com/guid-link", items[1].URL)
}

func TestParseFeed_Atom(t *testing.T) {
	t.Parallel()

	atom := `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Atom Example</title>
  <entry>
    <title>Atom entry</title>
    <link href="https://example.com/atom-entry"/>
    <id>urn:uuid:1</id>
    <updated>2024-01-02T03:04:05Z</updated>
    <author><name>Ada</name></author>
    <summary>Atom summary text</summary>
  </entry>
</feed>`

	items, err := feed.ParseFeed(context.Background(), atom, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "https://example.com/atom-entry", items[0].URL)
	assert.Equal(t, "Ada", items[0].Author)
	assert.Equal(t, "Atom summary text", items[0].Text)
	require.NotNil(t, items[0].PublishedAt)
}

func TestParseFeed_Invalid(t *testing.T) {
	t.Parallel()

	_, err := feed.ParseFeed(context.Background(), "<html><body>not a feed</body></html>", 0)
	assert.Error(t, err)
}

func TestParseFeed_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := feed.ParseFeed(ctx, rssFeed, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStripHTML(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a b", feed.StripHTML("<p>a</p> <p>b</p>"))
	assert.Empty(t, feed.StripHTML("   "))
}
