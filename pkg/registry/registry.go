// Package registry reads and writes the activity registry file.
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

func New() *ActivityRegistry {
	return &ActivityRegistry{Version: "1.0.0", Activities: []Activity{}}
}

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &reg, nil
}

// LoadOrNew returns an empty registry when path does not exist.
func LoadOrNew(path string) (*ActivityRegistry, error) {
	reg, err := LoadRegistry(path)
	if os.IsNotExist(err) {
		return New(), nil
	}
	return reg, err
}

// Save stamps LastUpdated and writes the registry as indented JSON.
func (r *ActivityRegistry) Save(path string) error {
	r.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}

func (r *ActivityRegistry) Find(id string) (*Activity, bool) {
	for i := range r.Activities {
		if r.Activities[i].ID == id {
			return &r.Activities[i], true
		}
	}
	return nil, false
}

// Add appends a new activity; the id must be unused.
func (r *ActivityRegistry) Add(a Activity) error {
	if _, exists := r.Find(a.ID); exists {
		return fmt.Errorf("activity with ID %s already exists", a.ID)
	}
	r.Activities = append(r.Activities, a)
	return nil
}

// Upsert replaces the activity with the same id, keeping its workflows and
// tags, or appends a. It reports whether an entry was replaced.
func (r *ActivityRegistry) Upsert(a Activity) bool {
	if existing, ok := r.Find(a.ID); ok {
		if len(a.Workflows) == 0 {
			a.Workflows = existing.Workflows
		}
		if len(a.Tags) == 0 {
			a.Tags = existing.Tags
		}
		*existing = a
		return true
	}
	r.Activities = append(r.Activities, a)
	return false
}

// SetField updates one scalar field of the activity with id.
func (r *ActivityRegistry) SetField(id, field, value string) error {
	a, ok := r.Find(id)
	if !ok {
		return fmt.Errorf("activity with ID %s not found", id)
	}
	switch field {
	case "status":
		a.ImplementationStatus = value
	case "version":
		a.Version = value
	case "displayName":
		a.DisplayName = value
	case "description":
		a.Description = value
	case "category":
		a.Category = value
	case "taskType":
		a.TaskType = value
	case "timeout":
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid timeout value: %w", err)
		}
		a.Timeout = value
	case "retries":
		retries, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid retries value: %w", err)
		}
		a.Retries = retries
	default:
		return fmt.Errorf("unknown field: %s", field)
	}
	return nil
}

// Validate checks ids are unique and the required fields are present.
func (r *ActivityRegistry) Validate() error {
	if len(r.Activities) == 0 {
		return fmt.Errorf("registry contains no activities")
	}
	ids := make(map[string]bool, len(r.Activities))
	for _, a := range r.Activities {
		if a.ID == "" {
			return fmt.Errorf("activity missing required field: ID")
		}
		if ids[a.ID] {
			return fmt.Errorf("duplicate activity ID: %s", a.ID)
		}
		ids[a.ID] = true

		switch {
		case a.DisplayName == "":
			return fmt.Errorf("activity %s missing required field: DisplayName", a.ID)
		case a.TaskType == "":
			return fmt.Errorf("activity %s missing required field: TaskType", a.ID)
		case a.Category == "":
			return fmt.Errorf("activity %s missing required field: Category", a.ID)
		}
	}
	return nil
}
