package domain

import (
	"fmt"
	"math"
	"time"
)

const day = 24 * time.Hour

// Groups maps a priority label to its tasks in input order.
type Groups map[string][]Task

// GroupByPriority partitions tasks by their own Priority. Relative order inside
// a group follows the input.
func GroupByPriority(tasks []Task) Groups {
	groups := make(Groups)
	for _, t := range tasks {
		groups[t.Priority] = append(groups[t.Priority], t)
	}
	return groups
}

// Lookup returns the tasks for priority, or an empty slice when there are none.
func (g Groups) Lookup(priority string) []Task {
	if tasks, ok := g[priority]; ok {
		return tasks
	}
	return []Task{}
}

// DaysRemaining is the ceiling of the difference in days: 25h ahead is 2,
// 1h ahead is 1, 1h late is 0 and 30h late is -1. Zero covers the final day
// up to and including the first day past due.
func DaysRemaining(due, now time.Time) int {
	return int(math.Ceil(float64(due.Sub(now)) / float64(day)))
}

// Deadline is the display datum for a task's due date.
type Deadline struct {
	Days    int  `json:"days"`
	Overdue bool `json:"overdue"`
}

// DeadlineFor evaluates due against now. Days is always non-negative.
func DeadlineFor(due, now time.Time) Deadline {
	d := DaysRemaining(due, now)
	if d < 0 {
		return Deadline{Days: -d, Overdue: true}
	}
	return Deadline{Days: d}
}

func (d Deadline) Label() string {
	if d.Overdue {
		return fmt.Sprintf("Retard %d jour(s)", d.Days)
	}
	return fmt.Sprintf("%d jour(s)", d.Days)
}

// Column configures one board group.
type Column struct {
	Priority string `json:"priority" toml:"priority"`
	Color    string `json:"color" toml:"color"`
}

// DefaultColumns is the layout of the printed task sheet.
var DefaultColumns = []Column{
	{Priority: "Urgente", Color: "#f0dede"},
	{Priority: "Prioritaire", Color: "#e5d4ca"},
	{Priority: "Standard", Color: "#ced5df"},
	{Priority: "Secondaire", Color: "#dacfd5"},
}

// FallbackColor is used for priorities that have no configured column.
const FallbackColor = "#e6e6e6"

// Item is a task annotated for display.
type Item struct {
	Task     Task     `json:"task"`
	Deadline Deadline `json:"deadline"`
	Label    string   `json:"label"`
}

// BoardColumn is one rendered priority group.
type BoardColumn struct {
	Priority string `json:"priority"`
	Color    string `json:"color"`
	Items    []Item `json:"items"`
}

// Board is the view-model of the whole task sheet.
type Board struct {
	Columns    []BoardColumn `json:"columns"`
	TotalTasks int           `json:"totalTasks"`
}

// BuildBoard groups tasks and annotates each with its deadline relative to now.
// Configured columns come first, in configuration order, even when empty.
// Priorities without a column follow in the order they first appear.
func BuildBoard(tasks []Task, columns []Column, now time.Time) Board {
	groups := GroupByPriority(tasks)
	board := Board{Columns: make([]BoardColumn, 0, len(columns)), TotalTasks: len(tasks)}

	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		if seen[c.Priority] {
			continue
		}
		seen[c.Priority] = true
		board.Columns = append(board.Columns, newBoardColumn(c, groups.Lookup(c.Priority), now))
	}
	for _, t := range tasks {
		if seen[t.Priority] {
			continue
		}
		seen[t.Priority] = true
		c := Column{Priority: t.Priority, Color: FallbackColor}
		board.Columns = append(board.Columns, newBoardColumn(c, groups[t.Priority], now))
	}
	return board
}

func newBoardColumn(c Column, tasks []Task, now time.Time) BoardColumn {
	col := BoardColumn{Priority: c.Priority, Color: c.Color, Items: make([]Item, 0, len(tasks))}
	for _, t := range tasks {
		d := DeadlineFor(t.DueDate, now)
		col.Items = append(col.Items, Item{Task: t, Deadline: d, Label: d.Label()})
	}
	return col
}

// FindTask returns the task with id from a snapshot.
func FindTask(tasks []Task, id int64) (Task, bool) {
	for _, t := range tasks {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}
