// Package knowledge implements the keyword-matched article base behind the
// search_knowledge_base tool. It stands in for a real retrieval backend.
package knowledge

import (
	"sort"
	"strings"
	"sync"
)

// Article is one knowledge-base entry.
type Article struct {
	ID     string   `yaml:"id" json:"id"`
	Title  string   `yaml:"title" json:"title"`
	Topics []string `yaml:"topics" json:"topics,omitempty"`
	Body   string   `yaml:"body" json:"body"`
}

// Base holds the article set. Replace swaps the whole set atomically so a
// live reload never exposes a half-loaded base.
type Base struct {
	mu       sync.RWMutex
	articles []Article
}

// NewBase creates a base with the given articles.
func NewBase(articles []Article) *Base {
	return &Base{articles: articles}
}

// NewSeededBase creates a base with the built-in demo articles.
func NewSeededBase() *Base {
	return NewBase(seedArticles())
}

// Replace swaps the article set.
func (b *Base) Replace(articles []Article) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.articles = articles
}

// Len returns the number of articles.
func (b *Base) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.articles)
}

// Search returns up to limit articles scored by case-insensitive keyword
// overlap between the query and each article's topics, title and body.
// Topic hits weigh more than body hits. Ties keep article order.
func (b *Base) Search(query string, limit int) []Article {
	if limit <= 0 {
		limit = 3
	}
	terms := tokenize(query)
	if len(terms) == 0 {
		return nil
	}

	b.mu.RLock()
	articles := b.articles
	b.mu.RUnlock()

	type scored struct {
		article Article
		score   int
		index   int
	}
	var matches []scored
	for i, a := range articles {
		score := 0
		title := strings.ToLower(a.Title)
		body := strings.ToLower(a.Body)
		for _, term := range terms {
			for _, topic := range a.Topics {
				if strings.Contains(strings.ToLower(topic), term) {
					score += 3
				}
			}
			if strings.Contains(title, term) {
				score += 2
			}
			if strings.Contains(body, term) {
				score++
			}
		}
		if score > 0 {
			matches = append(matches, scored{article: a, score: score, index: i})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].index < matches[j].index
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}
	result := make([]Article, len(matches))
	for i, m := range matches {
		result[i] = m.article
	}
	return result
}

var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "do": true, "for": true, "how": true,
	"i": true, "is": true, "my": true, "of": true, "or": true, "the": true,
	"to": true, "what": true, "whats": true, "your": true,
}

func tokenize(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	var terms []string
	for _, f := range fields {
		if len(f) < 2 || stopWords[f] {
			continue
		}
		terms = append(terms, f)
	}
	return terms
}

func seedArticles() []Article {
	return []Article{
		{
			ID:     "kb-shipping",
			Title:  "Shipping policy",
			Topics: []string{"shipping", "delivery", "carrier"},
			Body: "Standard shipping takes 5-7 business days and is free on orders over $50. " +
				"Expedited shipping (2-3 business days) is available at checkout for $12.99. " +
				"Orders placed before 2pm ET ship the same day. Tracking numbers are emailed " +
				"once the carrier picks up the package.",
		},
		{
			ID:     "kb-returns",
			Title:  "Return policy",
			Topics: []string{"returns", "exchange"},
			Body: "Items can be returned within 30 days of delivery in original packaging. " +
				"Start a return from your account page to receive a prepaid label. Exchanges " +
				"ship as soon as the original item is scanned by the carrier.",
		},
		{
			ID:     "kb-refunds",
			Title:  "Refund policy",
			Topics: []string{"refund", "payment", "billing"},
			Body: "Refunds are issued to the original payment method within 5-10 business days " +
				"of the returned item arriving at our warehouse. Orders delivered more than 60 " +
				"days ago are not eligible for a refund.",
		},
		{
			ID:     "kb-account",
			Title:  "Managing your account",
			Topics: []string{"account", "password", "email"},
			Body: "Reset your password from the sign-in page. Order history, addresses and " +
				"payment methods are managed under account settings.",
		},
		{
			ID:     "kb-contact",
			Title:  "Contacting support",
			Topics: []string{"contact", "support", "hours"},
			Body: "Support is available by chat 24/7 and by phone Monday through Friday, " +
				"9am to 6pm ET, at 1-800-555-0199.",
		},
	}
}
