package usecases

import "strings"

// Topic is a data slice a query asks about.
type Topic uint8

const (
	TopicSales Topic = 1 << iota
	TopicProducts
	TopicCustomers
	TopicPerformance
	TopicLowStock
)

// IntentKind is the single variant an intent collapses into.
type IntentKind string

const (
	ComparisonQuery IntentKind = "comparison"
	ProductQuery    IntentKind = "product"
	CustomerQuery   IntentKind = "customer"
	SalesQuery      IntentKind = "sales"
	GenericQuery    IntentKind = "generic"
)

// Intent is the result of classifying a query in one keyword pass.
type Intent struct {
	Window  WindowKind
	Topics  Topic
	Compare bool

	// windowMatched is set when a period keyword was present.
	windowMatched bool
}

// Has reports whether the intent includes topic t.
func (i Intent) Has(t Topic) bool {
	return i.Topics&t != 0
}

// Kind collapses the intent into one variant, most specific first.
func (i Intent) Kind() IntentKind {
	switch {
	case i.Compare:
		return ComparisonQuery
	case i.Has(TopicProducts) || i.Has(TopicLowStock):
		return ProductQuery
	case i.Has(TopicCustomers):
		return CustomerQuery
	case i.windowMatched || i.Has(TopicPerformance):
		return SalesQuery
	default:
		return GenericQuery
	}
}

// windowKeywords is ordered by priority: first match wins.
var windowKeywords = []struct {
	keyword string
	kind    WindowKind
}{
	{"today", WindowToday},
	{"yesterday", WindowYesterday},
	{"this week", WindowThisWeek},
	{"last week", WindowLastWeek},
	{"this month", WindowThisMonth},
	{"last month", WindowLastMonth},
}

var topicKeywords = []struct {
	topic    Topic
	keywords []string
}{
	{TopicProducts, []string{"product", "inventory", "stock", "top", "best"}},
	{TopicCustomers, []string{"customer", "user", "profile"}},
	{TopicPerformance, []string{"category", "brand", "performance"}},
	{TopicLowStock, []string{"low", "stock", "alert", "inventory"}},
}

// ClassifyQuery derives the intent of a free-text query.
func ClassifyQuery(query string) Intent {
	q := strings.ToLower(query)

	intent := Intent{Window: WindowAllTime, Topics: TopicSales}
	for _, wk := range windowKeywords {
		if strings.Contains(q, wk.keyword) {
			intent.Window = wk.kind
			intent.windowMatched = true
			break
		}
	}

	for _, tk := range topicKeywords {
		if containsAny(q, tk.keywords) {
			intent.Topics |= tk.topic
		}
	}

	intent.Compare = intent.windowMatched && (strings.Contains(q, "compare") || strings.Contains(q, "vs"))
	return intent
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
