package notifier

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

const hospitalizedRowLabel = "hospitalized"

// ParsePage extracts the total-hospitalized count from the page fragment.
// The value sits in the cell adjacent to the first table row whose label
// cell contains "hospitalized" (case-insensitive).
func ParsePage(raw []byte) (int, error) {
	doc, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		return 0, fmt.Errorf("page: %v: %w", err, ErrParse)
	}

	value, found := findAdjacentCell(doc, hospitalizedRowLabel)
	if !found {
		return 0, fmt.Errorf("page: no row matching %q: %w", hospitalizedRowLabel, ErrParse)
	}
	if value == "" {
		return 0, fmt.Errorf("page: empty cell next to %q row: %w", hospitalizedRowLabel, ErrParse)
	}

	return sanitizeNumber(value, "totalHospitalized")
}

// findAdjacentCell walks the document for the first <tr> whose leading <td>
// text contains match and returns the trimmed text of the following cell.
func findAdjacentCell(n *html.Node, match string) (string, bool) {
	if n.Type == html.ElementNode && n.Data == "tr" {
		cells := childCells(n)
		if len(cells) > 0 && strings.Contains(strings.ToLower(strings.TrimSpace(nodeText(cells[0]))), match) {
			if len(cells) < 2 {
				return "", true
			}
			return strings.TrimSpace(nodeText(cells[1])), true
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if v, found := findAdjacentCell(c, match); found {
			return v, found
		}
	}

	return "", false
}

func childCells(tr *html.Node) []*html.Node {
	var tds []*html.Node
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "td" {
			tds = append(tds, c)
		}
	}
	return tds
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
