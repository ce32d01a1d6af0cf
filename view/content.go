package view

import (
	"encoding/json"
	"strings"

	"github.com/Nexora-Open-Source/smartedu/generation"
	"github.com/Nexora-Open-Source/smartedu/outline"
	"github.com/Nexora-Open-Source/smartedu/schema"
)

// Topic is one numbered outline entry
type Topic struct {
	Number      string  `json:"number"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Children    []Topic `json:"children,omitempty"`
}

// OutlineContent is a generated module ready for editing
type OutlineContent struct {
	ModuleID string  `json:"module_id"`
	Title    string  `json:"title"`
	Topics   []Topic `json:"topics"`

	tree outline.Tree
}

// NewOutlineContent builds the renderable form of a module
func NewOutlineContent(m *schema.Module) OutlineContent {
	return OutlineContent{
		ModuleID: m.ID,
		Title:    m.Title,
		Topics:   topics(m.Outline.Nodes(), nil),
		tree:     m.Outline,
	}
}

func topics(nodes []outline.Node, prefix outline.Path) []Topic {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]Topic, len(nodes))
	for i, n := range nodes {
		p := append(append(outline.Path{}, prefix...), i)
		out[i] = Topic{
			Number:      p.String(),
			Title:       n.Title,
			Description: n.Description,
			Children:    topics(n.Children, p),
		}
	}
	return out
}

func (c OutlineContent) String() string {
	return c.Title + "\n" + c.tree.Text()
}

// EbookContent is a generated ebook ready for editing
type EbookContent struct {
	ID       string `json:"id"`
	ModuleID string `json:"module_id"`
	Title    string `json:"title"`
	HTML     string `json:"html"`
}

func (c EbookContent) String() string {
	return strings.TrimSpace(c.Title + "\n" + c.HTML)
}

// OutlineTransform decodes a module payload into OutlineContent
func OutlineTransform(payload json.RawMessage) (interface{}, error) {
	m, err := schema.DecodeModule(payload)
	if err != nil {
		return nil, err
	}
	return NewOutlineContent(m), nil
}

// EbookTransform decodes an ebook payload into EbookContent
func EbookTransform(payload json.RawMessage) (interface{}, error) {
	e, err := schema.DecodeEbook(payload)
	if err != nil {
		return nil, err
	}
	return NewEbookContent(e), nil
}

// NewEbookContent wraps a saved ebook for editing
func NewEbookContent(e *schema.Ebook) EbookContent {
	return EbookContent{ID: e.ID, ModuleID: e.ModuleID, Title: e.Title, HTML: e.ContentHTML}
}

// TransformFor returns the content transform for a job kind
func TransformFor(kind generation.Kind) Transform {
	if kind == generation.KindEbook {
		return EbookTransform
	}
	return OutlineTransform
}
