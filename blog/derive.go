package blog

import (
	"math"
	"sort"
	"strings"
)

const (
	wordsPerMinute = 220
	minReadMinutes = 3
	// codeCharsPerWord weights code: it is skimmed, not read.
	codeCharsPerWord = 40
)

// AllCategory is the pseudo-category that selects every post.
const AllCategory = "all"

type wordCounter struct{ n int }

func (w *wordCounter) add(s string) { w.n += len(strings.Fields(s)) }

func (w *wordCounter) Paragraph(b Paragraph) { w.add(b.Text) }
func (w *wordCounter) Heading2(b Heading2)   { w.add(b.Text) }
func (w *wordCounter) Heading3(b Heading3)   { w.add(b.Text) }
func (w *wordCounter) Callout(b Callout)     { w.add(b.Text) }

func (w *wordCounter) UnorderedList(b UnorderedList) {
	for _, item := range b.Items {
		w.add(item)
	}
}

func (w *wordCounter) OrderedList(b OrderedList) {
	for _, item := range b.Items {
		w.add(item)
	}
}

func (w *wordCounter) Code(b Code) {
	w.n += int(math.Ceil(float64(len(b.Code)) / codeCharsPerWord))
}

func (w *wordCounter) Image(b Image) {
	w.add(b.Caption)
	if b.Source != nil {
		w.add(b.Source.Label)
	}
}

// WordCount estimates the readable words of a post body.
func WordCount(p Post) int {
	var w wordCounter
	p.Content.Walk(&w)
	return w.n
}

// ReadingMinutes is max(3, round(words/220)).
func ReadingMinutes(p Post) int {
	m := int(math.Round(float64(WordCount(p)) / wordsPerMinute))
	if m < minReadMinutes {
		return minReadMinutes
	}
	return m
}

// SortMode selects the order of the post index.
type SortMode string

const (
	SortNewest   SortMode = "newest"
	SortOldest   SortMode = "oldest"
	SortCategory SortMode = "category"
)

// ParseSortMode maps a query value to a mode; anything unknown is newest.
func ParseSortMode(s string) SortMode {
	switch SortMode(strings.ToLower(strings.TrimSpace(s))) {
	case SortOldest:
		return SortOldest
	case SortCategory:
		return SortCategory
	default:
		return SortNewest
	}
}

// Sort returns a sorted copy of posts.
func Sort(posts []Post, mode SortMode) []Post {
	out := append([]Post(nil), posts...)
	newestFirst := func(a, b Post) bool { return a.PublishedAt.After(b.PublishedAt) }
	switch mode {
	case SortOldest:
		sort.SliceStable(out, func(i, j int) bool { return out[i].PublishedAt.Before(out[j].PublishedAt) })
	case SortCategory:
		sort.SliceStable(out, func(i, j int) bool {
			a, b := out[i].Category.Name, out[j].Category.Name
			if a != b {
				return a < b
			}
			return newestFirst(out[i], out[j])
		})
	default:
		sort.SliceStable(out, func(i, j int) bool { return newestFirst(out[i], out[j]) })
	}
	return out
}

// CategoryCount is one entry of the category filter.
type CategoryCount struct {
	Category
	Count int
}

// CategoryAggregates returns the "All" pseudo-category followed by each
// category in first-seen order, with post counts.
func CategoryAggregates(posts []Post) []CategoryCount {
	out := []CategoryCount{{Category: Category{ID: AllCategory, Name: "All"}, Count: len(posts)}}
	index := make(map[string]int)
	for _, p := range posts {
		if p.Category.ID == "" {
			continue
		}
		if i, ok := index[p.Category.ID]; ok {
			out[i].Count++
			continue
		}
		index[p.Category.ID] = len(out)
		out = append(out, CategoryCount{Category: p.Category, Count: 1})
	}
	return out
}

// FilterByCategory keeps posts of category id; "" and "all" keep everything.
func FilterByCategory(posts []Post, id string) []Post {
	id = strings.TrimSpace(id)
	if id == "" || id == AllCategory {
		return posts
	}
	var out []Post
	for _, p := range posts {
		if p.Category.ID == id {
			out = append(out, p)
		}
	}
	return out
}

// Recent returns the n newest posts.
func Recent(posts []Post, n int) []Post {
	sorted := Sort(posts, SortNewest)
	if n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

// Related returns other posts sharing the category or at least one tag with
// current, newest first.
func Related(current Post, posts []Post) []Post {
	tags := make(map[string]struct{}, len(current.Tags))
	for _, t := range current.Tags {
		tags[strings.ToLower(strings.TrimSpace(t))] = struct{}{}
	}
	var related []Post
	for _, p := range posts {
		if p.Slug == current.Slug {
			continue
		}
		if p.Category.ID == current.Category.ID {
			related = append(related, p)
			continue
		}
		for _, t := range p.Tags {
			if _, ok := tags[strings.ToLower(strings.TrimSpace(t))]; ok {
				related = append(related, p)
				break
			}
		}
	}
	return Sort(related, SortNewest)
}

// Excerpt is the short description shown on cards and in feeds.
func Excerpt(p Post) string {
	if p.Hero != nil && p.Hero.Summary != "" {
		return p.Hero.Summary
	}
	return p.SEO.Description
}

// Description is the meta description of the detail page.
func Description(p Post) string {
	if p.SEO.Description != "" {
		return p.SEO.Description
	}
	if p.Hero != nil {
		return p.Hero.Summary
	}
	return ""
}
