package graph

import (
	"errors"
	"fmt"
	"testing"

	"pgregory.net/rapid"

	"github.com/ShayCichocki/jobhunt/pkg/models"
)

func task(id string, deps ...string) models.TaskSpec {
	return models.TaskSpec{ID: id, Description: id, Worker: "w", Schema: "s", DependsOn: deps}
}

func TestGraphBuildWithDependencies(t *testing.T) {
	g := New()
	err := g.Build([]models.TaskSpec{
		task("task-1"),
		task("task-2", "task-1"),
		task("task-3", "task-1", "task-2"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !g.IsReady("task-1") {
		t.Error("task-1 has no dependencies and should be ready")
	}
	g.MarkComplete("task-1")
	if !g.IsReady("task-2") {
		t.Error("task-2 should be ready once task-1 completes")
	}
	if g.IsReady("task-3") {
		t.Error("task-3 still waits on task-2")
	}
	g.MarkComplete("task-2")
	if !g.IsReady("task-3") {
		t.Error("task-3 should be ready once both dependencies complete")
	}
}

func TestGraphBuildUnknownDependency(t *testing.T) {
	g := New()
	if err := g.Build([]models.TaskSpec{task("task-1", "unknown-task")}); err == nil {
		t.Fatal("expected error for unknown dependency")
	}
}

func TestGraphBuildDuplicateID(t *testing.T) {
	g := New()
	if err := g.Build([]models.TaskSpec{task("a"), task("a")}); err == nil {
		t.Fatal("expected error for duplicate task id")
	}
}

func TestGraphCycleDetection(t *testing.T) {
	tests := []struct {
		name  string
		tasks []models.TaskSpec
		path  string
	}{
		{
			name:  "direct cycle",
			tasks: []models.TaskSpec{task("a", "b"), task("b", "a")},
			path:  "a -> b -> a",
		},
		{
			name:  "indirect cycle",
			tasks: []models.TaskSpec{task("a", "c"), task("b", "a"), task("c", "b")},
			path:  "a -> c -> b -> a",
		},
		{
			name:  "cycle behind a root",
			tasks: []models.TaskSpec{task("root"), task("x", "root", "y"), task("y", "x")},
			path:  "x -> y -> x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New().Build(tt.tasks)
			if err == nil {
				t.Fatal("expected cycle error")
			}
			var cycleErr *CycleError
			if !errors.As(err, &cycleErr) {
				t.Fatalf("expected *CycleError, got %T: %v", err, err)
			}
			if !errors.Is(err, ErrCycleDetected) {
				t.Error("expected errors.Is(err, ErrCycleDetected)")
			}
			want := fmt.Sprintf("%s: %s", ErrCycleDetected, tt.path)
			if err.Error() != want {
				t.Errorf("Error() = %q, want %q", err.Error(), want)
			}
		})
	}
}

func TestTopologicalSortPreservesDeclaredOrder(t *testing.T) {
	tests := []struct {
		name  string
		tasks []models.TaskSpec
		want  []string
	}{
		{
			name:  "independent tasks keep declared order",
			tasks: []models.TaskSpec{task("c"), task("a"), task("b")},
			want:  []string{"c", "a", "b"},
		},
		{
			name:  "dependency declared after dependent",
			tasks: []models.TaskSpec{task("fit", "parse"), task("parse")},
			want:  []string{"parse", "fit"},
		},
		{
			name:  "diamond",
			tasks: []models.TaskSpec{task("a"), task("c", "a"), task("b", "a"), task("d", "b", "c")},
			want:  []string{"a", "c", "b", "d"},
		},
		{
			name:  "independent task declared between chain",
			tasks: []models.TaskSpec{task("z", "y"), task("x"), task("y")},
			want:  []string{"x", "y", "z"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New()
			if err := g.Build(tt.tasks); err != nil {
				t.Fatalf("Build: %v", err)
			}
			got, err := g.TopologicalSort()
			if err != nil {
				t.Fatalf("TopologicalSort: %v", err)
			}
			if fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Errorf("TopologicalSort() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsReadyAndMarkComplete(t *testing.T) {
	g := New()
	if err := g.Build([]models.TaskSpec{task("a"), task("b", "a")}); err != nil {
		t.Fatalf("Build: %v", err)
	}

	if !g.IsReady("a") {
		t.Error("a has no dependencies and should be ready")
	}
	if g.IsReady("b") {
		t.Error("b should not be ready before a completes")
	}
	g.MarkComplete("a")
	if !g.IsReady("b") {
		t.Error("b should be ready after a completes")
	}
}

// genDAG draws a random DAG: task i may only depend on tasks with a lower
// index, then the declaration order is shuffled.
func genDAG(t *rapid.T) []models.TaskSpec {
	n := rapid.IntRange(1, 12).Draw(t, "n")
	tasks := make([]models.TaskSpec, n)
	for i := 0; i < n; i++ {
		var deps []string
		for j := 0; j < i; j++ {
			if rapid.Bool().Draw(t, fmt.Sprintf("edge_%d_%d", i, j)) {
				deps = append(deps, fmt.Sprintf("t%d", j))
			}
		}
		tasks[i] = task(fmt.Sprintf("t%d", i), deps...)
	}
	perm := rapid.Permutation(tasks).Draw(t, "declared")
	return perm
}

func TestTopologicalSortProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tasks := genDAG(t)

		g := New()
		if err := g.Build(tasks); err != nil {
			t.Fatalf("Build on a DAG failed: %v", err)
		}
		order, err := g.TopologicalSort()
		if err != nil {
			t.Fatalf("TopologicalSort: %v", err)
		}
		if len(order) != len(tasks) {
			t.Fatalf("order has %d tasks, want %d", len(order), len(tasks))
		}

		pos := make(map[string]int, len(order))
		for i, id := range order {
			pos[id] = i
		}
		for _, tk := range tasks {
			for _, dep := range tk.DependsOn {
				if pos[dep] >= pos[tk.ID] {
					t.Fatalf("task %s visited before its dependency %s: %v", tk.ID, dep, order)
				}
			}
		}

		// Walking the order never reaches a task whose dependencies are pending.
		for _, id := range order {
			if !g.IsReady(id) {
				t.Fatalf("task %s not ready when reached in %v", id, order)
			}
			g.MarkComplete(id)
		}
	})
}

func TestCycleAlwaysRejectedProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tasks := genDAG(t)
		if len(tasks) < 2 {
			tasks = append(tasks, task("extra"))
		}
		// Close a loop between two distinct tasks through a back edge.
		i := rapid.IntRange(0, len(tasks)-1).Draw(t, "i")
		j := rapid.IntRange(0, len(tasks)-1).Filter(func(v int) bool { return v != i }).Draw(t, "j")
		tasks[i].DependsOn = append(append([]string(nil), tasks[i].DependsOn...), tasks[j].ID)
		tasks[j].DependsOn = append(append([]string(nil), tasks[j].DependsOn...), tasks[i].ID)

		err := New().Build(tasks)
		if !errors.Is(err, ErrCycleDetected) {
			t.Fatalf("expected cycle error, got %v", err)
		}
	})
}
