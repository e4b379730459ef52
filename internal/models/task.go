package models

import "math"

type TaskStatus string

const (
	TaskPending TaskStatus = "pending"
	TaskDone    TaskStatus = "done"
)

// Flip returns the opposite status.
func (s TaskStatus) Flip() TaskStatus {
	if s == TaskDone {
		return TaskPending
	}
	return TaskDone
}

type ActionType string

const (
	ActionUpload   ActionType = "upload"
	ActionGenerate ActionType = "generate"
	ActionPay      ActionType = "pay"
	ActionVerify   ActionType = "verify"
)

// ApplicationTask is one checklist item of a locked university.
type ApplicationTask struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	ActionType  ActionType `json:"actionType"`
	ActionLabel string     `json:"actionLabel"`
}

// TaskPatch carries the fields an update merges into a task. The id is
// never patched.
type TaskPatch struct {
	Title       Optional[string]     `json:"title,omitzero"`
	Description Optional[string]     `json:"description,omitzero"`
	Status      Optional[TaskStatus] `json:"status,omitzero"`
	ActionType  Optional[ActionType] `json:"actionType,omitzero"`
	ActionLabel Optional[string]     `json:"actionLabel,omitzero"`
}

// Apply merges the present fields of p into t.
func (p TaskPatch) Apply(t ApplicationTask) ApplicationTask {
	if p.Title.Present() {
		t.Title = p.Title.Value
	}
	if p.Description.Present() {
		t.Description = p.Description.Value
	}
	if p.Status.Present() {
		t.Status = p.Status.Value
	}
	if p.ActionType.Present() {
		t.ActionType = p.ActionType.Value
	}
	if p.ActionLabel.Present() {
		t.ActionLabel = p.ActionLabel.Value
	}
	return t
}

// TaskList is the ordered checklist of one university.
type TaskList []ApplicationTask

func (l TaskList) Total() int { return len(l) }

func (l TaskList) Completed() int {
	n := 0
	for _, t := range l {
		if t.Status == TaskDone {
			n++
		}
	}
	return n
}

// Progress is the rounded share of done tasks, 0 for an empty list.
func (l TaskList) Progress() int {
	if len(l) == 0 {
		return 0
	}
	return int(math.Round(100 * float64(l.Completed()) / float64(len(l))))
}

func (l TaskList) IsComplete() bool {
	return l.Progress() == 100
}

// Index returns the position of id, or -1.
func (l TaskList) Index(id string) int {
	for i, t := range l {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// Clone returns an independent copy.
func (l TaskList) Clone() TaskList {
	if l == nil {
		return nil
	}
	out := make(TaskList, len(l))
	copy(out, l)
	return out
}
