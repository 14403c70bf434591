package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/samber/lo"
	"golang.org/x/net/html"
)

var (
	selLDJSON      = cascadia.MustCompile(`script[type="application/ld+json"]`)
	selTitle       = cascadia.MustCompile(`meta[property="og:title"]`)
	selSummary     = cascadia.MustCompile(`meta[name="description"]`)
	selIcon        = cascadia.MustCompile(`meta[property="og:image"]`)
	selScreenshots = cascadia.MustCompile(`img[data-screenshot-index]`)
	selChanges     = cascadia.MustCompile(`[itemprop="description"]`)
)

// GooglePlay reads app listings from the Play Store details page
type GooglePlay struct {
	client  *Client
	baseURL string
}

// NewGooglePlay creates a provider for the store at baseURL
func NewGooglePlay(client *Client, baseURL string) *GooglePlay {
	return &GooglePlay{client: client, baseURL: strings.TrimSuffix(baseURL, "/")}
}

// DetailsURL is the listing page for q
func (g *GooglePlay) DetailsURL(q Query) string {
	v := url.Values{}
	v.Set("id", q.AppID)
	if q.Lang != "" {
		v.Set("hl", q.Lang)
	}
	if q.Country != "" {
		v.Set("gl", q.Country)
	}
	return g.baseURL + "/store/apps/details?" + v.Encode()
}

// App fetches and parses the listing of q.AppID
func (g *GooglePlay) App(ctx context.Context, q Query) (*AppRecord, error) {
	pageURL := g.DetailsURL(q)

	resp, err := g.client.get(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrAppNotFound, q.AppID)
	default:
		return nil, fmt.Errorf("%w: %s for %s", ErrBadStatus, resp.Status, q.AppID)
	}

	body, err := readBody(resp.Body)
	if err != nil {
		return nil, err
	}

	rec, err := ParseListing(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing of %s: %w", q.AppID, err)
	}

	rec.ID = q.AppID
	rec.URL = pageURL
	return rec, nil
}

// ldApp is the part of the SoftwareApplication JSON-LD block we use
type ldApp struct {
	Type        string          `json:"@type"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Image       string          `json:"image"`
	Author      ldAuthor        `json:"author"`
	Offers      json.RawMessage `json:"offers"`
}

type ldAuthor struct {
	Name string `json:"name"`
}

type ldOffer struct {
	Price         json.Number `json:"price"`
	PriceCurrency string      `json:"priceCurrency"`
}

// ParseListing extracts an AppRecord from a details page
func ParseListing(page []byte) (*AppRecord, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	rec := &AppRecord{Free: true}

	if ld, ok := findSoftwareApp(doc); ok {
		rec.Title = ld.Name
		rec.Summary = ld.Description
		rec.Icon = ld.Image
		rec.Developer = ld.Author.Name
		applyOffer(rec, ld.Offers)
	}

	if rec.Title == "" {
		rec.Title = attr(selTitle.MatchFirst(doc), "content")
	}
	if s := attr(selSummary.MatchFirst(doc), "content"); s != "" {
		rec.Summary = s
	}
	if rec.Icon == "" {
		rec.Icon = attr(selIcon.MatchFirst(doc), "content")
	}
	rec.Icon = stripSizeSuffix(rec.Icon)

	for _, n := range selScreenshots.MatchAll(doc) {
		src := attr(n, "src")
		if src == "" {
			src = attr(n, "data-src")
		}
		if src != "" {
			rec.Screenshots = append(rec.Screenshots, stripSizeSuffix(src))
		}
	}
	rec.Screenshots = lo.Uniq(rec.Screenshots)

	if n := selChanges.MatchFirst(doc); n != nil {
		rec.RecentChanges = strings.TrimSpace(textContent(n))
	}

	if rec.Title == "" {
		return nil, fmt.Errorf("listing has no title")
	}

	return rec, nil
}

func findSoftwareApp(doc *html.Node) (ldApp, bool) {
	for _, n := range selLDJSON.MatchAll(doc) {
		var ld ldApp
		if err := json.Unmarshal([]byte(textContent(n)), &ld); err != nil {
			continue
		}
		if ld.Type == "SoftwareApplication" || ld.Type == "MobileApplication" {
			return ld, true
		}
	}
	return ldApp{}, false
}

// applyOffer reads the price from an offer object or the first of a list
func applyOffer(rec *AppRecord, raw json.RawMessage) {
	if len(raw) == 0 {
		return
	}

	var offers []ldOffer
	if err := json.Unmarshal(raw, &offers); err != nil {
		var one ldOffer
		if err := json.Unmarshal(raw, &one); err != nil {
			return
		}
		offers = []ldOffer{one}
	}
	if len(offers) == 0 {
		return
	}

	price, err := strconv.ParseFloat(offers[0].Price.String(), 64)
	if err != nil || price == 0 {
		return
	}

	rec.Free = false
	rec.Price = price
	rec.Currency = offers[0].PriceCurrency
	rec.PriceText = strings.TrimSpace(offers[0].Price.String() + " " + offers[0].PriceCurrency)
}

// stripSizeSuffix drops the "=w526-h296-rw" style sizing of Google image
// URLs so the original upload is served
func stripSizeSuffix(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || !strings.HasSuffix(u.Host, "googleusercontent.com") {
		return raw
	}
	if i := strings.LastIndex(u.Path, "="); i > strings.LastIndex(u.Path, "/") {
		u.Path = u.Path[:i]
		u.RawPath = ""
	}
	return u.String()
}

func attr(n *html.Node, key string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attr {
		if a.Key == key {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

// textContent flattens a node to text, <br> becomes a newline
func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			sb.WriteString(n.Data)
		case n.Type == html.ElementNode && n.Data == "br":
			sb.WriteString("\n")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
