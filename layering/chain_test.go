package layering

import (
	"errors"
	"testing"
)

type chainNode struct {
	parent string
	value  string
}

func chainLoader(nodes map[string]chainNode) LoadFunc[chainNode] {
	return func(id string) (chainNode, string, bool, error) {
		node, ok := nodes[id]
		if !ok {
			return chainNode{}, "", false, nil
		}
		return node, node.parent, true, nil
	}
}

func TestWalkChainOrdersNearestFirst(t *testing.T) {
	nodes := map[string]chainNode{
		"parent":      {parent: "grandparent", value: "p"},
		"grandparent": {value: "g"},
	}

	links, err := WalkChain("child", "parent", 8, chainLoader(nodes))
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	if len(links) != 2 || links[0].ID != "parent" || links[1].ID != "grandparent" {
		t.Fatalf("unexpected links: %+v", links)
	}
	if links[1].Node.value != "g" {
		t.Fatalf("expected grandparent node, got %+v", links[1].Node)
	}
}

func TestWalkChainEmptyStart(t *testing.T) {
	links, err := WalkChain("child", "", 8, chainLoader(nil))
	if err != nil || links != nil {
		t.Fatalf("expected empty walk, got links=%v err=%v", links, err)
	}
}

func TestWalkChainStopsAtMissingNode(t *testing.T) {
	nodes := map[string]chainNode{"parent": {parent: "gone"}}
	links, err := WalkChain("child", "parent", 8, chainLoader(nodes))
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	if len(links) != 1 {
		t.Fatalf("expected chain to end at missing node, got %+v", links)
	}
}

func TestWalkChainDetectsCycleBackToStart(t *testing.T) {
	nodes := map[string]chainNode{
		"parent":      {parent: "grandparent"},
		"grandparent": {parent: "child"},
	}
	_, err := WalkChain("child", "parent", 8, chainLoader(nodes))
	if !errors.Is(err, ErrChainCycle) {
		t.Fatalf("expected cycle error, got %v", err)
	}
	var cycle *CycleError
	if !errors.As(err, &cycle) || cycle.ID != "child" {
		t.Fatalf("expected cycle to name child, got %v", err)
	}
}

func TestWalkChainDetectsSelfReference(t *testing.T) {
	_, err := WalkChain("child", "child", 8, chainLoader(nil))
	if !errors.Is(err, ErrChainCycle) {
		t.Fatalf("expected cycle error, got %v", err)
	}
}

func TestWalkChainDetectsInnerCycleWithoutDepthBound(t *testing.T) {
	nodes := map[string]chainNode{
		"a": {parent: "b"},
		"b": {parent: "a"},
	}
	_, err := WalkChain("child", "a", 0, chainLoader(nodes))
	if !errors.Is(err, ErrChainCycle) {
		t.Fatalf("expected cycle error, got %v", err)
	}
}

func TestWalkChainEnforcesDepth(t *testing.T) {
	nodes := map[string]chainNode{
		"a": {parent: "b"},
		"b": {parent: "c"},
		"c": {},
	}
	links, err := WalkChain("child", "a", 2, chainLoader(nodes))
	if !errors.Is(err, ErrChainTooDeep) {
		t.Fatalf("expected depth error, got %v", err)
	}
	if len(links) != 2 {
		t.Fatalf("expected partial links before failure, got %d", len(links))
	}
}

func TestWalkChainPropagatesLoaderError(t *testing.T) {
	boom := errors.New("boom")
	_, err := WalkChain("child", "parent", 8, func(string) (chainNode, string, bool, error) {
		return chainNode{}, "", false, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected loader error, got %v", err)
	}
}
