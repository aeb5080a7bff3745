package domain

import (
	"reflect"
	"testing"
	"time"
)

func ids(tasks []Task) []int64 {
	out := make([]int64, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func TestGroupByPriorityStable(t *testing.T) {
	tasks := []Task{
		{ID: 1, Priority: "Urgente"},
		{ID: 2, Priority: "Standard"},
		{ID: 3, Priority: "Urgente"},
	}
	groups := GroupByPriority(tasks)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if got := ids(groups["Urgente"]); !reflect.DeepEqual(got, []int64{1, 3}) {
		t.Fatalf("unexpected Urgente group: %v", got)
	}
	if got := ids(groups["Standard"]); !reflect.DeepEqual(got, []int64{2}) {
		t.Fatalf("unexpected Standard group: %v", got)
	}
}

func TestGroupByPriorityPartition(t *testing.T) {
	tasks := []Task{
		{ID: 10, Priority: "b"}, {ID: 11, Priority: "a"}, {ID: 12, Priority: "c"},
		{ID: 13, Priority: "a"}, {ID: 14, Priority: "b"}, {ID: 15, Priority: ""},
		{ID: 16, Priority: "a"},
	}
	groups := GroupByPriority(tasks)

	total := 0
	for label, group := range groups {
		total += len(group)
		last := int64(-1)
		for _, task := range group {
			if task.Priority != label {
				t.Fatalf("task %d filed under %q", task.ID, label)
			}
			if task.ID <= last {
				t.Fatalf("group %q out of input order: %v", label, ids(group))
			}
			last = task.ID
		}
	}
	if total != len(tasks) {
		t.Fatalf("partition lost tasks: %d of %d", total, len(tasks))
	}
}

func TestGroupsLookupMissing(t *testing.T) {
	groups := GroupByPriority(nil)
	if len(groups) != 0 {
		t.Fatalf("expected no groups, got %d", len(groups))
	}
	for _, label := range []string{"Urgente", "Prioritaire", "Standard", "Secondaire"} {
		got := groups.Lookup(label)
		if got == nil || len(got) != 0 {
			t.Fatalf("Lookup(%q) = %#v, want empty slice", label, got)
		}
	}
}

func TestDaysRemaining(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		due  time.Time
		want int
	}{
		{name: "due now", due: now, want: 0},
		{name: "one hour ahead", due: now.Add(time.Hour), want: 1},
		{name: "exactly one day", due: now.Add(24 * time.Hour), want: 1},
		{name: "25 hours ahead", due: now.Add(25 * time.Hour), want: 2},
		{name: "one hour late", due: now.Add(-time.Hour), want: 0},
		{name: "due earlier today", due: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), want: 0},
		{name: "30 hours late", due: now.Add(-30 * time.Hour), want: -1},
		{name: "exactly two days late", due: now.Add(-48 * time.Hour), want: -2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysRemaining(tt.due, now); got != tt.want {
				t.Fatalf("DaysRemaining = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDeadlineLabel(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	ahead := DeadlineFor(now.Add(25*time.Hour), now)
	if ahead != (Deadline{Days: 2}) || ahead.Label() != "2 jour(s)" {
		t.Fatalf("unexpected deadline: %+v %q", ahead, ahead.Label())
	}
	late := DeadlineFor(now.Add(-30*time.Hour), now)
	if late != (Deadline{Days: 1, Overdue: true}) || late.Label() != "Retard 1 jour(s)" {
		t.Fatalf("unexpected deadline: %+v %q", late, late.Label())
	}
	today := DeadlineFor(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), now)
	if today != (Deadline{}) || today.Label() != "0 jour(s)" {
		t.Fatalf("unexpected deadline for a task due today: %+v %q", today, today.Label())
	}
}

func TestBuildBoard(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tasks := []Task{
		{ID: 1, Priority: "Urgente", DueDate: now.Add(time.Hour)},
		{ID: 2, Priority: "Plus tard", DueDate: now.Add(72 * time.Hour)},
		{ID: 3, Priority: "Standard", DueDate: now.Add(-30 * time.Hour)},
		{ID: 4, Priority: "Urgente", DueDate: now},
	}
	board := BuildBoard(tasks, DefaultColumns, now)

	if board.TotalTasks != 4 {
		t.Fatalf("unexpected total: %d", board.TotalTasks)
	}
	var labels []string
	for _, c := range board.Columns {
		labels = append(labels, c.Priority)
	}
	want := []string{"Urgente", "Prioritaire", "Standard", "Secondaire", "Plus tard"}
	if !reflect.DeepEqual(labels, want) {
		t.Fatalf("unexpected columns: %v", labels)
	}

	urgent := board.Columns[0]
	if urgent.Color != "#f0dede" || len(urgent.Items) != 2 {
		t.Fatalf("unexpected urgent column: %+v", urgent)
	}
	if urgent.Items[0].Task.ID != 1 || urgent.Items[0].Label != "1 jour(s)" {
		t.Fatalf("unexpected first urgent item: %+v", urgent.Items[0])
	}
	if urgent.Items[1].Task.ID != 4 || urgent.Items[1].Label != "0 jour(s)" {
		t.Fatalf("unexpected second urgent item: %+v", urgent.Items[1])
	}
	if items := board.Columns[1].Items; items == nil || len(items) != 0 {
		t.Fatalf("expected empty Prioritaire column, got %#v", items)
	}
	if item := board.Columns[2].Items[0]; !item.Deadline.Overdue || item.Label != "Retard 1 jour(s)" {
		t.Fatalf("unexpected standard item: %+v", item)
	}
	if extra := board.Columns[4]; extra.Color != FallbackColor || len(extra.Items) != 1 {
		t.Fatalf("unexpected extra column: %+v", extra)
	}
}

func TestBuildBoardEmpty(t *testing.T) {
	board := BuildBoard(nil, DefaultColumns, time.Now())
	if len(board.Columns) != len(DefaultColumns) {
		t.Fatalf("expected %d columns, got %d", len(DefaultColumns), len(board.Columns))
	}
	for _, c := range board.Columns {
		if len(c.Items) != 0 {
			t.Fatalf("expected empty column %q", c.Priority)
		}
	}
}

func TestFindTask(t *testing.T) {
	tasks := []Task{{ID: 1, Title: "a"}, {ID: 2, Title: "b"}}
	if got, ok := FindTask(tasks, 2); !ok || got.Title != "b" {
		t.Fatalf("unexpected result: %+v %v", got, ok)
	}
	if _, ok := FindTask(tasks, 3); ok {
		t.Fatalf("expected miss")
	}
}
