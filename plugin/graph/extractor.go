package graph

import (
	"sort"
	"strings"

	"github.com/hrygo/notegraph/plugin/markdown"
)

// Candidates are the edge candidates derived from a note list, before
// validation against the node set.
type Candidates struct {
	Explicit  []Edge
	SharedTag []Edge
	// Tags maps note id to its normalized tags: record tags plus body `#tag` markers.
	Tags map[string][]string
}

// Extractor turns note bodies and tags into edge candidates.
type Extractor struct {
	md markdown.Service
}

// NewExtractor creates an Extractor that understands wiki-link and tag markers.
func NewExtractor() *Extractor {
	return &Extractor{
		md: markdown.NewService(
			markdown.WithWikiLinkExtension(),
			markdown.WithTagExtension(),
		),
	}
}

// Extract scans notes in order. Titles are matched case-insensitively and the
// first note with a given title wins. Markers that resolve to nothing or to
// the note itself are dropped.
func (x *Extractor) Extract(notes []Note) Candidates {
	titles := make(map[string]string, len(notes))
	for _, n := range notes {
		key := normalizeTitle(n.Title)
		if key == "" {
			continue
		}
		if _, ok := titles[key]; !ok {
			titles[key] = n.ID
		}
	}

	c := Candidates{Tags: make(map[string][]string, len(notes))}
	linked := make(map[edgeKey]struct{})
	tagToNotes := make(map[string][]string)

	for _, n := range notes {
		markers := x.md.Extract(n.Body)
		for _, title := range markers.Links {
			target, ok := titles[normalizeTitle(title)]
			if !ok || target == n.ID {
				continue
			}
			key := keyOf(n.ID, target, EdgeExplicitLink)
			if _, dup := linked[key]; dup {
				continue
			}
			linked[key] = struct{}{}
			c.Explicit = append(c.Explicit, Edge{Source: n.ID, Target: target, Kind: EdgeExplicitLink})
		}

		if _, dup := c.Tags[n.ID]; dup {
			continue
		}
		tags := normalizeTags(n.Tags, markers.Tags)
		c.Tags[n.ID] = tags
		for _, tag := range tags {
			tagToNotes[tag] = append(tagToNotes[tag], n.ID)
		}
	}

	tags := make([]string, 0, len(tagToNotes))
	for tag, ids := range tagToNotes {
		if len(ids) >= 2 {
			tags = append(tags, tag)
		}
	}
	sort.Strings(tags)

	paired := make(map[edgeKey]struct{})
	for _, tag := range tags {
		ids := tagToNotes[tag]
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				a, b := ids[i], ids[j]
				if _, ok := linked[keyOf(a, b, EdgeExplicitLink)]; ok {
					continue
				}
				key := keyOf(a, b, EdgeSharedTag)
				if _, dup := paired[key]; dup {
					continue
				}
				paired[key] = struct{}{}
				c.SharedTag = append(c.SharedTag, Edge{Source: a, Target: b, Kind: EdgeSharedTag})
			}
		}
	}

	return c
}

func normalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// normalizeTags lower-cases, trims and deduplicates tags, keeping first-seen order.
func normalizeTags(groups ...[]string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, group := range groups {
		for _, tag := range group {
			tag = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(tag, "#")))
			if tag == "" {
				continue
			}
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			out = append(out, tag)
		}
	}
	return out
}
