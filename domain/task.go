package domain

import "time"

// Board statuses. A task always sits in exactly one of the three columns.
const (
	StatusTodo       = "todo"
	StatusInProgress = "inProgress"
	StatusDone       = "done"
)

// Task priorities.
const (
	PriorityLow    = "Low"
	PriorityMedium = "Medium"
	PriorityHigh   = "High"
)

// Task categories.
const (
	CategoryBug         = "Bug"
	CategoryFeature     = "Feature"
	CategoryEnhancement = "Enhancement"
)

// Attachment is a file carried by a task. URL holds the data reference; the
// reference client stores data: URLs there.
type Attachment struct {
	Name string `json:"name"`
	Type string `json:"type"`
	URL  string `json:"url"`
}

// Task represents a single board item.
type Task struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Status      string       `json:"status"`
	Priority    string       `json:"priority"`
	Category    string       `json:"category"`
	Attachments []Attachment `json:"attachments"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// Draft carries the caller-supplied fields for task creation. Empty optional
// fields take board defaults when the task is built.
type Draft struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Status      string       `json:"status"`
	Priority    string       `json:"priority"`
	Category    string       `json:"category"`
	Attachments []Attachment `json:"attachments"`
}

// Patch carries optional task field updates; nil means "leave unchanged".
type Patch struct {
	Title       *string       `json:"title"`
	Description *string       `json:"description"`
	Status      *string       `json:"status"`
	Priority    *string       `json:"priority"`
	Category    *string       `json:"category"`
	Attachments *[]Attachment `json:"attachments"`
}

// Apply merges the patch into t and returns the result. t is copied; the
// stored task is untouched until the merge has been validated.
func (p Patch) Apply(t Task) Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Attachments != nil {
		t.Attachments = *p.Attachments
	}
	return t
}

// Build converts a draft into a task with defaults filled in. The result
// still has to pass Validate; invalid caller-supplied values survive the
// defaulting so validation can report them.
func (d Draft) Build() Task {
	t := Task{
		Title:       d.Title,
		Description: d.Description,
		Status:      d.Status,
		Priority:    d.Priority,
		Category:    d.Category,
		Attachments: d.Attachments,
	}
	if t.Status == "" {
		t.Status = StatusTodo
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if t.Category == "" {
		t.Category = CategoryFeature
	}
	if t.Attachments == nil {
		t.Attachments = []Attachment{}
	}
	return t
}

// ValidStatus reports whether s is one of the three board columns.
func ValidStatus(s string) bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// ValidPriority reports whether p is an allowed priority.
func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// ValidCategory reports whether c is an allowed category.
func ValidCategory(c string) bool {
	switch c {
	case CategoryBug, CategoryFeature, CategoryEnhancement:
		return true
	}
	return false
}

// Validate checks a task-shaped value against the board's field rules and
// returns the first violation. The whole mutation aborts on the first failing
// rule; nothing is partially applied.
func Validate(t Task) error {
	if t.Title == "" {
		return &ValidationError{Message: "Title is required and must be a string"}
	}
	if !ValidStatus(t.Status) {
		return &ValidationError{Message: "Invalid status. Must be todo, inProgress, or done"}
	}
	if !ValidPriority(t.Priority) {
		return &ValidationError{Message: "Invalid priority. Must be Low, Medium, or High"}
	}
	if !ValidCategory(t.Category) {
		return &ValidationError{Message: "Invalid category. Must be Bug, Feature, or Enhancement"}
	}
	return nil
}
