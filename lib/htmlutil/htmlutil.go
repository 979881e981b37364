package htmlutil

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

func Parse(body []byte) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(bytes.NewBuffer(body))
}

// Form is a snapshot of an HTML form: its action url plus the current
// value of every named input. It feeds exactly one follow-up request and
// is never persisted.
type Form struct {
	Action string
	Fields map[string]string
}

// FirstForm returns the first form matching selector, or nil if the page
// has none. An empty selector matches any form carrying an action.
func FirstForm(doc *goquery.Document, selector string) *Form {
	if selector == "" {
		selector = "form[action]"
	}
	sel := doc.Find(selector).First()
	if len(sel.Nodes) == 0 {
		return nil
	}

	fields := map[string]string{}
	sel.Find("input[name]").Each(func(_ int, input *goquery.Selection) {
		fields[input.AttrOr("name", "")] = input.AttrOr("value", "")
	})
	return &Form{
		Action: sel.AttrOr("action", ""),
		Fields: fields,
	}
}

// InputValue returns the current value of the named input, or "" when the
// input is absent.
func InputValue(doc *goquery.Document, name string) string {
	return doc.Find("input[name=" + name + "]").First().AttrOr("value", "")
}

func TableRows(doc *goquery.Document, selector string) []*goquery.Selection {
	var rows []*goquery.Selection
	doc.Find(selector).Find("tr").Each(func(_ int, row *goquery.Selection) {
		rows = append(rows, row)
	})
	return rows
}

func CellText(row *goquery.Selection) []string {
	var cells []string
	row.Find("td").Each(func(_ int, cell *goquery.Selection) {
		cells = append(cells, strings.TrimSpace(cell.Text()))
	})
	return cells
}

// LastScriptText returns the text of the last script block typed
// text/javascript, or "" if there is none. Both portals report failures
// through such a script appended at the end of the body; untyped script
// tags never carry errors and are ignored.
func LastScriptText(doc *goquery.Document) string {
	last := doc.Find("script[type='text/javascript']").Last()
	if len(last.Nodes) == 0 {
		return ""
	}
	return strings.TrimSpace(GetText(last.Nodes[0]))
}
