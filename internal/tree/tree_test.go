package tree

import (
	"testing"

	"github.com/kingrea/tendril/internal/geom"
)

func TestNewTreeHasSingleRoot(t *testing.T) {
	tr := New(geom.Vec2{X: 5, Y: 5})
	if tr.Len() != 1 {
		t.Fatalf("fresh tree has %d nodes", tr.Len())
	}
	root := tr.Node(0)
	if root.Parent != NoParent || root.ID != 0 {
		t.Fatalf("bad root %+v", root)
	}
	if !tr.IsTip(0) {
		t.Fatalf("fresh root must be a tip")
	}
}

func TestAddMaintainsTreeShape(t *testing.T) {
	tr := New(geom.Vec2{})
	a := tr.Add(0, geom.Vec2{X: 1}, RoleSelected)
	b := tr.Add(a, geom.Vec2{X: 2}, RoleSelected)
	c := tr.Add(a, geom.Vec2{X: 1, Y: 1}, RoleMissed)

	if tr.IsTip(0) || tr.IsTip(a) {
		t.Fatalf("parents must stop being tips")
	}
	if !tr.IsTip(b) || !tr.IsTip(c) {
		t.Fatalf("fresh children must be tips")
	}

	// Every non-root parent chain terminates at the root, no cycles.
	for id := 0; id < tr.Len(); id++ {
		seen := map[int]bool{}
		for cur := id; cur != NoParent; cur = tr.Node(cur).Parent {
			if seen[cur] {
				t.Fatalf("cycle through node %d", cur)
			}
			seen[cur] = true
		}
		if !seen[0] {
			t.Fatalf("node %d does not reach the root", id)
		}
	}
}

func TestPathToRoot(t *testing.T) {
	tr := New(geom.Vec2{})
	a := tr.Add(0, geom.Vec2{X: 1}, RoleSelected)
	b := tr.Add(a, geom.Vec2{X: 2}, RoleSelected)
	path := tr.PathToRoot(b)
	want := []int{b, a, 0}
	if len(path) != len(want) {
		t.Fatalf("path %v, want %v", path, want)
	}
	for i := range want {
		if path[i] != want[i] {
			t.Fatalf("path %v, want %v", path, want)
		}
	}
}

func TestSetTokenIsWriteOnce(t *testing.T) {
	tr := New(geom.Vec2{})
	tr.SetToken(0, " blue", 0.42)
	tr.SetToken(0, " red", 0.9)
	n := tr.Node(0)
	if !n.HasToken || n.Token != " blue" || n.Probability != 0.42 {
		t.Fatalf("token must be write-once, got %+v", n)
	}
}

func TestNodesReturnsCopy(t *testing.T) {
	tr := New(geom.Vec2{})
	snap := tr.Nodes()
	snap[0].Pos = geom.Vec2{X: 99}
	if tr.Node(0).Pos == (geom.Vec2{X: 99}) {
		t.Fatalf("snapshot mutation leaked into the arena")
	}
}

func TestRoleString(t *testing.T) {
	if RoleSelected.String() != "selected" || RoleMissed.String() != "missed" || RoleUnassigned.String() != "unassigned" {
		t.Fatalf("unexpected role names: %s %s %s", RoleSelected, RoleMissed, RoleUnassigned)
	}
}
