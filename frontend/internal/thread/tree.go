package thread

import (
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/itchan-dev/forllm/shared/api"
	"github.com/itchan-dev/forllm/shared/domain"
	internal_errors "github.com/itchan-dev/forllm/shared/errors"
	"github.com/itchan-dev/forllm/shared/logger"
	"github.com/itchan-dev/forllm/shared/utils"
)

// Node is a post with its direct replies ordered by creation time.
type Node struct {
	Post     domain.Post
	Children []*Node
}

// Entry is one row of the depth-first rendering order.
// Replies at any depth are indented by a single level.
type Entry struct {
	Node     *Node
	Depth    int
	Indented bool
}

// Decode reads a topic's posts as returned by the forum API.
func Decode(r io.Reader) ([]domain.Post, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, &internal_errors.InvalidInputError{Message: fmt.Sprintf("cannot decode posts: %v", err)}
	}
	var resp []api.PostResponse
	if err := json.Unmarshal(raw, &resp); err != nil || resp == nil {
		return nil, &internal_errors.InvalidInputError{Message: "posts payload is not a list"}
	}
	if err := utils.ValidateResponse(resp); err != nil {
		return nil, err
	}
	posts := make([]domain.Post, len(resp))
	for i, p := range resp {
		posts[i] = p.ToDomain()
	}
	return posts, nil
}

// Build links posts into a forest. A post whose parent is missing from posts
// becomes a root. Posts that only reach themselves through their parents
// (self-parented or cyclic) are promoted to roots as well, so the forest
// always holds every post exactly once.
func Build(posts []domain.Post) ([]*Node, error) {
	if posts == nil {
		return nil, &internal_errors.InvalidInputError{Message: "posts must be a list"}
	}

	index := make(map[domain.PostId]*Node, len(posts))
	nodes := make([]*Node, 0, len(posts))
	for _, p := range posts {
		if p.Id == 0 {
			return nil, &internal_errors.InvalidInputError{Message: "post without id"}
		}
		if _, dup := index[p.Id]; dup {
			return nil, &internal_errors.InvalidInputError{Message: fmt.Sprintf("duplicate post id %d", p.Id)}
		}
		n := &Node{Post: p}
		index[p.Id] = n
		nodes = append(nodes, n)
	}

	var roots []*Node
	orphans := 0
	for _, n := range nodes {
		parent := parentOf(n, index)
		if parent == nil {
			if n.Post.ParentId != nil {
				orphans++
			}
			roots = append(roots, n)
			continue
		}
		parent.Children = append(parent.Children, n)
	}

	if promoted := promoteCycles(nodes, roots, index); len(promoted) > 0 {
		logger.Log.Warn("posts with cyclic parents promoted to roots",
			"component", "thread",
			"count", len(promoted))
		roots = append(roots, promoted...)
	}
	if orphans > 0 {
		logger.Log.Debug("posts with unknown parents rendered as roots",
			"component", "thread",
			"count", orphans)
	}

	sortNodes(roots)
	return roots, nil
}

func parentOf(n *Node, index map[domain.PostId]*Node) *Node {
	if n.Post.ParentId == nil || *n.Post.ParentId == n.Post.Id {
		return nil
	}
	return index[*n.Post.ParentId]
}

// promoteCycles detaches the earliest post of every unreachable group from its parent.
func promoteCycles(nodes, roots []*Node, index map[domain.PostId]*Node) []*Node {
	seen := make(map[*Node]bool, len(nodes))
	for _, r := range roots {
		mark(r, seen)
	}
	if len(seen) == len(nodes) {
		return nil
	}

	candidates := make([]*Node, 0, len(nodes)-len(seen))
	for _, n := range nodes {
		if !seen[n] {
			candidates = append(candidates, n)
		}
	}
	slices.SortStableFunc(candidates, compareNodes)

	var promoted []*Node
	for _, n := range candidates {
		if seen[n] {
			continue
		}
		parent := parentOf(n, index)
		parent.Children = slices.DeleteFunc(parent.Children, func(c *Node) bool { return c == n })
		promoted = append(promoted, n)
		mark(n, seen)
	}
	return promoted
}

func mark(n *Node, seen map[*Node]bool) {
	if seen[n] {
		return
	}
	seen[n] = true
	for _, c := range n.Children {
		mark(c, seen)
	}
}

func compareNodes(a, b *Node) int {
	if c := a.Post.CreatedAt.Compare(b.Post.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.Post.Id, b.Post.Id)
}

func sortNodes(nodes []*Node) {
	slices.SortStableFunc(nodes, compareNodes)
	for _, n := range nodes {
		sortNodes(n.Children)
	}
}

// Walk returns the forest in depth-first pre-order.
func Walk(roots []*Node) []Entry {
	var entries []Entry
	var visit func(n *Node, depth int)
	visit = func(n *Node, depth int) {
		entries = append(entries, Entry{Node: n, Depth: depth, Indented: depth > 0})
		for _, c := range n.Children {
			visit(c, depth+1)
		}
	}
	for _, r := range roots {
		visit(r, 0)
	}
	return entries
}

func Count(roots []*Node) int {
	total := 0
	for _, r := range roots {
		total += 1 + Count(r.Children)
	}
	return total
}
