package normalize

import (
	"errors"
	"fmt"
	"io"

	"golang.org/x/net/html"
)

// ReadHTML extracts paragraphs from converter-style HTML: <p> and <li> are
// paragraphs and <strong>/<b> are bold. Only items of a bulleted <ul> are
// list items; <ol> items are auto-numbered questions whose numbers the
// converter dropped, so they stay plain paragraphs. The tokenizer decodes
// character entities; <img> elements are dropped.
func ReadHTML(r io.Reader) ([]Paragraph, error) {
	tokenizer := html.NewTokenizer(r)

	var (
		paragraphs []Paragraph
		current    *Paragraph
		lists      []string // open list elements, innermost last
		boldDepth  int
	)

	flush := func() {
		if current != nil {
			paragraphs = append(paragraphs, *current)
			current = nil
		}
	}
	open := func() {
		flush()
		current = &Paragraph{ListItem: len(lists) > 0 && lists[len(lists)-1] == "ul"}
	}

	for {
		tokenType := tokenizer.Next()
		switch tokenType {
		case html.ErrorToken:
			if err := tokenizer.Err(); !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("tokenizing html: %w", err)
			}
			flush()
			return paragraphs, nil

		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := tokenizer.TagName()
			switch string(name) {
			case "p", "li", "h1", "h2", "h3", "h4", "h5", "h6", "td":
				open()
			case "ul", "ol":
				flush()
				lists = append(lists, string(name))
			case "strong", "b":
				if tokenType == html.StartTagToken {
					boldDepth++
				}
			case "br":
				if current != nil {
					current.add(" ", boldDepth > 0)
				}
			case "img":
				if current == nil {
					open()
				}
				current.HasImage = true
			}

		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			switch string(name) {
			case "p", "li", "h1", "h2", "h3", "h4", "h5", "h6", "td":
				flush()
			case "ul", "ol":
				flush()
				if len(lists) > 0 {
					lists = lists[:len(lists)-1]
				}
			case "strong", "b":
				if boldDepth > 0 {
					boldDepth--
				}
			}

		case html.TextToken:
			text := string(tokenizer.Text())
			if current == nil {
				if collapseSpace(text) == "" {
					continue
				}
				open()
			}
			current.add(text, boldDepth > 0)
		}
	}
}
