package outline

import "fmt"

// Edit operation names accepted by Apply
const (
	OpSetTitle       = "set_title"
	OpSetDescription = "set_description"
	OpInsert         = "insert"
	OpAppend         = "append"
	OpRemove         = "remove"
	OpMove           = "move"
)

// Op is one edit addressed by a dotted 1-based path ("2.1"). For insert and
// append the path names the parent; an empty path means the top level.
type Op struct {
	Op          string `json:"op"`
	Path        string `json:"path"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Index       int    `json:"index,omitempty"`
	Delta       int    `json:"delta,omitempty"`
}

// Apply runs ops in order. It is all-or-nothing: on error the original tree
// is returned together with the failing op's position.
func Apply(t Tree, ops []Op) (Tree, error) {
	cur := t
	for i, op := range ops {
		next, err := applyOne(cur, op)
		if err != nil {
			return t, fmt.Errorf("op %d (%s): %w", i+1, op.Op, err)
		}
		cur = next
	}
	return cur, nil
}

func applyOne(t Tree, op Op) (Tree, error) {
	path, err := ParsePath(op.Path)
	if err != nil {
		return t, err
	}
	switch op.Op {
	case OpSetTitle:
		return t.SetTitle(path, op.Title)
	case OpSetDescription:
		return t.SetDescription(path, op.Description)
	case OpInsert:
		// Index is 1-based like paths
		return t.Insert(path, op.Index-1, Node{Title: op.Title, Description: op.Description})
	case OpAppend:
		return t.Append(path, Node{Title: op.Title, Description: op.Description})
	case OpRemove:
		return t.Remove(path)
	case OpMove:
		return t.Move(path, op.Delta)
	default:
		return t, fmt.Errorf("unknown operation %q", op.Op)
	}
}
