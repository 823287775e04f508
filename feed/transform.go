// Package feed turns published Notion pages into the website's post feed.
package feed

import (
	"regexp"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/sleeautomation/sitehooks/model"
	"github.com/sleeautomation/sitehooks/notion"
)

// Defaults substituted when a page leaves a property empty.
const (
	DefaultCategory = "GEO"
	DefaultReadTime = "5 min read"
	DefaultAuthor   = "Sandy Lee"
)

// titleProperties are checked in order; the first one present wins.
var titleProperties = []string{"Title", "Name", "title"}

var trailingDigits = regexp.MustCompile(`\d+$`)

// Transform normalizes every page. now supplies the fallback publish date.
func Transform(pages []notion.Page, now time.Time) []model.ContentItem {
	return lo.Map(pages, func(p notion.Page, _ int) model.ContentItem {
		return Normalize(p, now)
	})
}

// Normalize maps one page to a ContentItem, filling defaults field by field.
func Normalize(p notion.Page, now time.Time) model.ContentItem {
	publishDate := ""
	if prop, ok := p.Lookup("Publish Date"); ok {
		publishDate = prop.DateStart()
	}
	category := ""
	if prop, ok := p.Lookup("Category"); ok {
		category = prop.SelectName()
	}
	return model.ContentItem{
		ID:              p.ID,
		Title:           Title(p),
		Slug:            p.RichTextValue("Slug"),
		Category:        lo.CoalesceOrEmpty(category, DefaultCategory),
		MetaDescription: p.RichTextValue("Meta Description"),
		ReadTime:        lo.CoalesceOrEmpty(p.RichTextValue("Read Time"), DefaultReadTime),
		Author:          lo.CoalesceOrEmpty(p.RichTextValue("Author"), DefaultAuthor),
		PublishDate:     lo.CoalesceOrEmpty(publishDate, now.UTC().Format(time.DateOnly)),
		URL:             p.URL,
	}
}

// Title returns the page's title property text, falling back to a title
// recovered from the page URL.
func Title(p notion.Page) string {
	if prop, ok := p.Lookup(titleProperties...); ok {
		if t := prop.FirstTitle(); t != "" {
			return t
		}
	}
	if p.URL == "" {
		return ""
	}
	return TitleFromURL(p.URL)
}

// TitleFromURL rebuilds a title from a Notion page URL of the form
// https://www.notion.so/Title-With-Dashes-<id>: the last path segment minus
// its trailing id, hyphens turned into spaces, trailing digits removed.
func TitleFromURL(u string) string {
	segments := strings.Split(u, "/")
	words := strings.Split(segments[len(segments)-1], "-")
	words = words[:len(words)-1]
	title := strings.Join(words, " ")
	return strings.TrimSpace(trailingDigits.ReplaceAllString(title, ""))
}
