package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listingPage = `<!doctype html>
<html><head>
<meta property="og:title" content="Demo App - Apps en Google Play">
<meta name="description" content="Una app de prueba">
<meta property="og:image" content="https://play-lh.googleusercontent.com/og=w200">
<script type="application/ld+json">{"@context":"https://schema.org","@type":"BreadcrumbList"}</script>
<script type="application/ld+json">{
  "@context": "https://schema.org",
  "@type": "SoftwareApplication",
  "name": "Demo App",
  "description": "Full description",
  "image": "https://play-lh.googleusercontent.com/icon123=s512-rw",
  "author": {"@type": "Person", "name": "Acme Labs"},
  "offers": [{"@type": "Offer", "price": "0", "priceCurrency": "MXN"}]
}</script>
</head><body>
<div role="list">
  <img data-screenshot-index="0" src="https://play-lh.googleusercontent.com/shot1=w526-h296-rw">
  <img data-screenshot-index="1" src="https://play-lh.googleusercontent.com/shot2=w526-h296-rw">
  <img data-screenshot-index="2" data-src="https://play-lh.googleusercontent.com/shot3">
  <img data-screenshot-index="3" src="https://play-lh.googleusercontent.com/shot1=w1052-h592-rw">
  <img src="https://play-lh.googleusercontent.com/avatar" alt="not a screenshot">
</div>
<section><div itemprop="description">Corrección de errores<br>Nuevo modo oscuro</div></section>
</body></html>`

func TestParseListing(t *testing.T) {
	rec, err := ParseListing([]byte(listingPage))
	require.NoError(t, err)

	assert.Equal(t, "Demo App", rec.Title)
	assert.Equal(t, "Una app de prueba", rec.Summary)
	assert.Equal(t, "Acme Labs", rec.Developer)
	assert.Equal(t, "https://play-lh.googleusercontent.com/icon123", rec.Icon)
	assert.True(t, rec.Free)
	assert.Empty(t, rec.PriceText)
	assert.Equal(t, []string{
		"https://play-lh.googleusercontent.com/shot1",
		"https://play-lh.googleusercontent.com/shot2",
		"https://play-lh.googleusercontent.com/shot3",
	}, rec.Screenshots)
	assert.Equal(t, "Corrección de errores\nNuevo modo oscuro", rec.RecentChanges)
}

func TestParseListingPaidSingleOffer(t *testing.T) {
	page := `<html><head><script type="application/ld+json">{"@type":"SoftwareApplication","name":"Paid",
"offers":{"@type":"Offer","price":29.99,"priceCurrency":"MXN"}}</script></head><body></body></html>`

	rec, err := ParseListing([]byte(page))
	require.NoError(t, err)
	assert.False(t, rec.Free)
	assert.Equal(t, 29.99, rec.Price)
	assert.Equal(t, "29.99 MXN", rec.PriceText)
	assert.Empty(t, rec.Screenshots)
}

func TestParseListingFallsBackToMeta(t *testing.T) {
	page := `<html><head>
<meta property="og:title" content="Meta Title">
<meta property="og:image" content="http://x/icon.png">
</head><body></body></html>`

	rec, err := ParseListing([]byte(page))
	require.NoError(t, err)
	assert.Equal(t, "Meta Title", rec.Title)
	assert.Equal(t, "http://x/icon.png", rec.Icon)
}

func TestParseListingWithoutTitle(t *testing.T) {
	_, err := ParseListing([]byte(`<html><body><p>nothing</p></body></html>`))
	assert.Error(t, err)
}

func TestStripSizeSuffix(t *testing.T) {
	assert.Equal(t, "https://play-lh.googleusercontent.com/abc", stripSizeSuffix("https://play-lh.googleusercontent.com/abc=w526-h296"))
	assert.Equal(t, "https://play-lh.googleusercontent.com/abc", stripSizeSuffix("https://play-lh.googleusercontent.com/abc"))
	assert.Equal(t, "http://x/s1.png?id=1", stripSizeSuffix("http://x/s1.png?id=1"))
}

func newTestClient() *Client {
	return NewClient(ClientOptions{
		UserAgent: "applanding-test",
		Lang:      "es",
		Timeout:   5 * time.Second,
		Logger:    zerolog.Nop(),
	})
}

func TestGooglePlayApp(t *testing.T) {
	var gotQuery, gotUA, gotLang string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id") != "com.demo" {
			http.NotFound(w, r)
			return
		}
		gotQuery = r.URL.RawQuery
		gotUA = r.Header.Get("User-Agent")
		gotLang = r.Header.Get("Accept-Language")
		_, _ = w.Write([]byte(listingPage))
	}))
	defer srv.Close()

	gp := NewGooglePlay(newTestClient(), srv.URL+"/")

	rec, err := gp.App(context.Background(), Query{AppID: "com.demo", Lang: "es", Country: "mx"})
	require.NoError(t, err)
	assert.Equal(t, "com.demo", rec.ID)
	assert.Equal(t, "Demo App", rec.Title)
	assert.Equal(t, srv.URL+"/store/apps/details?gl=mx&hl=es&id=com.demo", rec.URL)
	assert.Equal(t, "gl=mx&hl=es&id=com.demo", gotQuery)
	assert.Equal(t, "applanding-test", gotUA)
	assert.Equal(t, "es", gotLang)

	_, err = gp.App(context.Background(), Query{AppID: "com.missing"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAppNotFound))
	assert.True(t, strings.Contains(err.Error(), "app not found"))
}

func TestGooglePlayBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewGooglePlay(newTestClient(), srv.URL).App(context.Background(), Query{AppID: "com.demo"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBadStatus)
	assert.NotErrorIs(t, err, ErrAppNotFound)
}

func TestClientDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("payload"))
	}))
	defer srv.Close()

	c := newTestClient()

	data, err := c.Download(context.Background(), srv.URL+"/s1.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)

	_, err = c.Download(context.Background(), srv.URL+"/missing.png")
	assert.ErrorIs(t, err, ErrBadStatus)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Download(ctx, srv.URL+"/s1.png")
	assert.Error(t, err)
}

func TestMaskHeaders(t *testing.T) {
	h := http.Header{}
	h.Set("Cookie", "secret")
	h.Add("Accept", "text/html")
	h.Add("Accept", "image/webp")

	assert.Equal(t, map[string]string{
		"Cookie": "***",
		"Accept": "text/html,image/webp",
	}, maskHeaders(h, []string{"Cookie"}))
}
