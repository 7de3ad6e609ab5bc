// Package tokenizer derives bookmark titles and keywords from web
// pages.
//
// Keywords come from the visible text of a page: words are lowercased,
// stripped of punctuation, filtered against a stopword list, stemmed,
// and ranked by frequency.
package tokenizer

import (
	"context"
	_ "embed"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/net/html"
)

//go:embed stopwords.txt
var defaultStopwords string

// maxKeywords caps how many keywords a page contributes.
const maxKeywords = 15

var whitespaceRun = regexp.MustCompile(`\s+`)

// contentTags are the elements whose text feeds keyword extraction.
var contentTags = map[string]bool{
	"p": true, "h1": true, "h2": true, "h3": true,
	"h4": true, "h5": true, "h6": true, "li": true, "div": true,
}

// Tokenizer fetches pages and extracts titles and keywords.
type Tokenizer struct {
	client    *http.Client
	stopwords map[string]struct{}
}

// New creates a Tokenizer with the embedded stopword list. A nil
// client falls back to http.DefaultClient.
func New(client *http.Client) *Tokenizer {
	return NewWithStopwords(client, strings.Fields(defaultStopwords))
}

// NewWithStopwords creates a Tokenizer with a caller-supplied stopword
// list.
func NewWithStopwords(client *http.Client, stopwords []string) *Tokenizer {
	if client == nil {
		client = http.DefaultClient
	}

	set := make(map[string]struct{}, len(stopwords))
	for _, w := range stopwords {
		// Normalize the same way page words are normalized, so
		// entries like "don't" still match after punctuation
		// stripping.
		set[stripPunct(strings.ToLower(w))] = struct{}{}
	}

	return &Tokenizer{client: client, stopwords: set}
}

// Title fetches the page and returns its title with whitespace runs
// replaced by dashes.
func (t *Tokenizer) Title(ctx context.Context, pageURL string) (string, error) {
	doc, err := t.fetch(ctx, pageURL)
	if err != nil {
		return "", err
	}

	title := strings.TrimSpace(findTitle(doc))
	return whitespaceRun.ReplaceAllString(title, "-"), nil
}

// Keywords fetches the page and returns the most frequent stemmed
// words of its visible text.
func (t *Tokenizer) Keywords(ctx context.Context, pageURL string) ([]string, error) {
	doc, err := t.fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return t.Tokenize(contentText(doc)), nil
}

// Tokenize extracts keywords from raw text. Returns at most
// maxKeywords words ordered by descending frequency.
func (t *Tokenizer) Tokenize(input string) []string {
	counts := make(map[string]int)
	for _, word := range strings.Fields(strings.ToLower(input)) {
		word = stripPunct(word)
		if word == "" {
			continue
		}
		if _, stop := t.stopwords[word]; stop {
			continue
		}
		counts[stemSuffix(stemPlural(word))]++
	}

	words := make([]string, 0, len(counts))
	for word := range counts {
		words = append(words, word)
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return words[i] < words[j]
	})

	if len(words) > maxKeywords {
		words = words[:maxKeywords]
	}
	return words
}

func (t *Tokenizer) fetch(ctx context.Context, pageURL string) (*html.Node, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", pageURL, err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("failed to fetch %s: status %d", pageURL, resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", pageURL, err)
	}
	return doc, nil
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return nodeText(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if title := findTitle(c); title != "" {
			return title
		}
	}
	return ""
}

func contentText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && contentTags[n.Data] {
			sb.WriteString(nodeText(n))
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(sb.String(), " "))
}

func stripPunct(word string) string {
	var sb strings.Builder
	for _, r := range word {
		if r >= '!' && r <= '~' && !isAlnum(r) {
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
