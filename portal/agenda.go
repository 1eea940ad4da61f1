package portal

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/siherrmann/civicgraph/core/text"
	"github.com/siherrmann/civicgraph/helper"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	itemKeyPattern     = regexp.MustCompile(`^\s*(\d+(?:\.\d+)+)\.?\s*$`)
	sectionLikePattern = regexp.MustCompile(`^[A-Z0-9' &\-]{4,}$`)
)

const maxSectionLength = 40

// Attachment is a document link found in an agenda row.
type Attachment struct {
	DocumentID int64
	Title      string
	URL        string
	Handle     string
}

// ParsedItem is one numbered agenda row.
type ParsedItem struct {
	ItemKey     string
	Section     string
	Title       string
	Attachments []Attachment
}

// ParseAgenda extracts numbered items from CivicWeb agenda HTML.
// Each table may open a new section with a bold uppercase label. Rows carry
// the item key in one cell, and the longest other cell is the title.
func ParseAgenda(agendaHTML string, baseURL string) ([]ParsedItem, error) {
	root, err := html.Parse(strings.NewReader(agendaHTML))
	if err != nil {
		return nil, helper.NewError("parse html", err)
	}

	items := []ParsedItem{}
	section := ""
	for _, table := range findAll(root, atom.Table) {
		if bold := findFirst(table, atom.B, atom.Strong); bold != nil {
			candidate := nodeText(bold)
			if len(candidate) <= maxSectionLength && sectionLikePattern.MatchString(candidate) && candidate != "AGENDA" {
				section = candidate
			}
		}

		for _, row := range findAll(table, atom.Tr) {
			item, ok := parseRow(row, baseURL)
			if !ok {
				continue
			}
			item.Section = section
			items = append(items, item)
		}
	}

	return items, nil
}

func parseRow(row *html.Node, baseURL string) (ParsedItem, bool) {
	cells := findAll(row, atom.Td)
	if len(cells) < 2 {
		return ParsedItem{}, false
	}

	keyIndex := -1
	itemKey := ""
	for i, cell := range cells {
		if match := itemKeyPattern.FindStringSubmatch(nodeText(cell)); match != nil {
			keyIndex, itemKey = i, match[1]
			break
		}
	}
	if keyIndex < 0 {
		return ParsedItem{}, false
	}

	// Longest cell wins; on equal length the later cell is taken.
	titleIndex := -1
	title := ""
	for i, cell := range cells {
		if i == keyIndex {
			continue
		}
		cellText := nodeText(cell)
		if len(cellText) > 0 && len(cellText) >= len(title) {
			titleIndex, title = i, cellText
		}
	}
	if titleIndex < 0 {
		return ParsedItem{}, false
	}

	item := ParsedItem{ItemKey: itemKey, Title: title}
	for _, link := range findAll(cells[titleIndex], atom.A) {
		attachment, ok := parseAttachment(link, baseURL, title)
		if ok {
			item.Attachments = append(item.Attachments, attachment)
		}
	}

	return item, true
}

func parseAttachment(link *html.Node, baseURL string, fallbackTitle string) (Attachment, bool) {
	href := attr(link, "href")
	if !strings.Contains(href, "/document/") {
		return Attachment{}, false
	}

	absolute := href
	if !strings.HasPrefix(href, "http") {
		absolute = baseURL + href
	}

	parsed, err := url.Parse(absolute)
	if err != nil {
		return Attachment{}, false
	}

	var documentID int64
	segments := strings.Split(parsed.Path, "/")
	for i, segment := range segments {
		if segment == "document" && i+1 < len(segments) {
			documentID, err = strconv.ParseInt(segments[i+1], 10, 64)
			if err != nil {
				return Attachment{}, false
			}
			break
		}
	}
	if documentID <= 0 {
		return Attachment{}, false
	}

	title := nodeText(link)
	if len(title) == 0 {
		title = fallbackTitle
	}

	return Attachment{
		DocumentID: documentID,
		Title:      title,
		URL:        absolute,
		Handle:     parsed.Query().Get("handle"),
	}, true
}

func findAll(n *html.Node, a atom.Atom) []*html.Node {
	found := []*html.Node{}
	var traverse func(*html.Node)
	traverse = func(node *html.Node) {
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			if child.Type == html.ElementNode && child.DataAtom == a {
				found = append(found, child)
			}
			traverse(child)
		}
	}
	traverse(n)
	return found
}

func findFirst(n *html.Node, atoms ...atom.Atom) *html.Node {
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.ElementNode {
			for _, a := range atoms {
				if child.DataAtom == a {
					return child
				}
			}
		}
		if found := findFirst(child, atoms...); found != nil {
			return found
		}
	}
	return nil
}

// nodeText joins the text nodes below n with spaces and normalizes the result.
func nodeText(n *html.Node) string {
	parts := []string{}
	var traverse func(*html.Node)
	traverse = func(node *html.Node) {
		if node.Type == html.TextNode {
			parts = append(parts, node.Data)
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			traverse(child)
		}
	}
	traverse(n)
	return text.Normalize(strings.Join(parts, " "))
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
