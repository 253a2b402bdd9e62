package scraper

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/aluiziolira/go-scrape-booklist/models"
	"github.com/aluiziolira/go-scrape-booklist/parser"
	"golang.org/x/net/html"
)

// itemSelector matches one list row per book.
const itemSelector = `tr[itemtype="http://schema.org/Book"]`

// extractRecord pulls one record out of a list row. title is returned as soon
// as it is known so a skipped item can still be named in logs.
func extractRecord(item *goquery.Selection) (record *models.Record, title string, err error) {
	defer func() {
		if r := recover(); r != nil {
			record = nil
			err = fmt.Errorf("%w: %v", ErrExtractPanic, r)
		}
	}()

	titleEl := item.Find("a.bookTitle").First()
	if titleEl.Length() == 0 {
		return nil, "", ErrMissingTitle
	}
	title = parser.CleanName(strings.TrimSpace(titleEl.Text()))

	authorLink := item.Find(`span[itemprop="author"]`).First().Find("a").First()
	if authorLink.Length() == 0 {
		return nil, title, ErrMissingAuthor
	}
	author := strings.TrimSpace(authorLink.Text())

	// Missing rating text degrades every rating field to its default.
	ratingText := strings.TrimSpace(item.Find("span.greyText").First().Text())
	avgRating, _ := parser.AvgRating(ratingText)
	ratingCount, _ := parser.RatingCount(ratingText)

	nodes := textNodes(item)
	score, _ := parser.Score(nodes)
	votes, _ := parser.VoteCount(nodes)

	return &models.Record{
		Name:        title,
		Author:      author,
		AvgRating:   parser.Round(avgRating, 2),
		RatingCount: ratingCount,
		Score:       parser.Round(score, 1),
		VoteCount:   votes,
	}, title, nil
}

// textNodes flattens the selection into its non-blank text nodes, in
// document order.
func textNodes(sel *goquery.Selection) []string {
	var out []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if strings.TrimSpace(n.Data) != "" {
				out = append(out, n.Data)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return out
}
