package btree

import (
	"github.com/FocuswithJustin/sqlitescan/core/errors"
	"github.com/FocuswithJustin/sqlitescan/internal/logging"
)

// DefaultMaxPages bounds the number of pages a single walk may visit.
const DefaultMaxPages = 1 << 20

// PageSource supplies raw pages by 1-based page number.
type PageSource interface {
	Page(pgno uint32) ([]byte, error)
}

// Walker traverses table b-trees from a root page down to their leaves.
// A Walker holds no per-walk state and may be shared.
type Walker struct {
	src        PageSource
	usableSize int
	maxPages   int
}

// NewWalker creates a Walker over src. maxPages <= 0 selects DefaultMaxPages.
func NewWalker(src PageSource, usableSize, maxPages int) *Walker {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	return &Walker{src: src, usableSize: usableSize, maxPages: maxPages}
}

// UsableSize returns the usable page size the walker parses cells with.
func (w *Walker) UsableSize() int {
	return w.usableSize
}

// Walk visits every table-leaf cell reachable from root in left-to-right key
// order. Interior children are followed in cell order, then the right-most
// child. Index pages are rejected. A page reached twice, or more than the
// configured page ceiling, is reported as corruption.
func (w *Walker) Walk(root uint32, visit func(LeafCell) error) error {
	return w.walk(root, func(h *PageHeader, data []byte) error {
		ptrs, err := h.GetCellPointers(data)
		if err != nil {
			return err
		}
		for _, ptr := range ptrs {
			cell, err := ParseTableLeafCell(data, h.PageNum, int(ptr), w.usableSize)
			if err != nil {
				return err
			}
			if err := visit(cell); err != nil {
				return err
			}
		}
		return nil
	})
}

// CollectLeafCells returns every leaf cell reachable from root, in order.
func (w *Walker) CollectLeafCells(root uint32) ([]LeafCell, error) {
	var cells []LeafCell
	err := w.Walk(root, func(c LeafCell) error {
		cells = append(cells, c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cells, nil
}

// CollectLeafRecords decodes every leaf cell reachable from root with decode
// and returns the results in left-to-right key order.
func CollectLeafRecords[T any](w *Walker, root uint32, decode func(LeafCell) (T, error)) ([]T, error) {
	var out []T
	err := w.Walk(root, func(c LeafCell) error {
		v, err := decode(c)
		if err != nil {
			return err
		}
		out = append(out, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CountLeafCells returns the number of data cells in the tree rooted at root.
// When the root is itself a leaf only its header is read.
func (w *Walker) CountLeafCells(root uint32) (int, error) {
	total := 0
	err := w.walk(root, func(h *PageHeader, _ []byte) error {
		total += int(h.NumCells)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// RootHeader parses the page header of root without descending.
func (w *Walker) RootHeader(root uint32) (*PageHeader, error) {
	data, err := w.src.Page(root)
	if err != nil {
		return nil, errors.Wrapf(err, "page %d", root)
	}
	return ParsePageHeader(data, root)
}

// walk drives the traversal with an explicit stack, calling leaf for every
// table-leaf page in order.
func (w *Walker) walk(root uint32, leaf func(h *PageHeader, data []byte) error) error {
	visited := make(map[uint32]struct{})
	stack := []uint32{root}

	for len(stack) > 0 {
		pgno := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if pgno == 0 {
			return errors.NewCorrupt(pgno, "child pointer to page 0")
		}
		if _, seen := visited[pgno]; seen {
			return errors.NewCorrupt(pgno, "page reached twice in b-tree rooted at %d", root)
		}
		if len(visited) >= w.maxPages {
			return errors.NewCorrupt(pgno, "b-tree rooted at %d exceeds %d pages", root, w.maxPages)
		}
		visited[pgno] = struct{}{}

		data, err := w.src.Page(pgno)
		if err != nil {
			return errors.Wrapf(err, "page %d", pgno)
		}
		h, err := ParsePageHeader(data, pgno)
		if err != nil {
			return err
		}
		logging.PageVisit(pgno, h.KindName(), int(h.NumCells))

		switch h.PageType {
		case PageTypeLeafTable:
			if err := leaf(h, data); err != nil {
				return err
			}
		case PageTypeInteriorTable:
			children, err := w.children(h, data)
			if err != nil {
				return err
			}
			for i := len(children) - 1; i >= 0; i-- {
				stack = append(stack, children[i])
			}
		default:
			return errors.NewPageKind(pgno, h.PageType, "index b-trees are not scanned")
		}
	}
	return nil
}

// children returns the child pages of an interior table page in key order,
// the right-most child last.
func (w *Walker) children(h *PageHeader, data []byte) ([]uint32, error) {
	ptrs, err := h.GetCellPointers(data)
	if err != nil {
		return nil, err
	}
	out := make([]uint32, 0, len(ptrs)+1)
	for _, ptr := range ptrs {
		cell, err := ParseTableInteriorCell(data, h.PageNum, int(ptr))
		if err != nil {
			return nil, err
		}
		out = append(out, cell.ChildPage)
	}
	if h.RightChild == 0 {
		return nil, errors.NewCorrupt(h.PageNum, "interior page without right-most child")
	}
	return append(out, h.RightChild), nil
}
