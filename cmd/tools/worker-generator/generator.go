package main

import (
	"bytes"
	"fmt"
	"go/format"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
	"time"
	"unicode"

	"studyabroad-workers/pkg/registry"
)

type field struct {
	Name       string
	JSON       string
	GoType     string
	SchemaType string
	Nullable   bool
	Required   bool
	Enum       []string
}

type workerData struct {
	PackageName  string
	TaskType     string
	DisplayName  string
	Description  string
	Timeout      time.Duration
	InputFields  []field
	OutputFields []field
	Required     []string
}

var templates = []struct {
	name string
	body string
}{
	{"config.go", configTemplate},
	{"models.go", modelsTemplate},
	{"handler.go", handlerTemplate},
	{"handler_test.go", testTemplate},
}

// generate writes the scaffold for act under root/<category>/<id> and
// returns the package directory and the files written.
func generate(act *registry.Activity, root string, overwrite bool) (string, []string, error) {
	if act.TaskType == "" || act.Category == "" {
		return "", nil, fmt.Errorf("activity %q needs a taskType and category", act.ID)
	}
	data, err := newWorkerData(act)
	if err != nil {
		return "", nil, err
	}

	dir := filepath.Join(root, act.Category, act.ID)
	if _, err := os.Stat(dir); err == nil && !overwrite {
		return "", nil, fmt.Errorf("%s already exists, pass --force to overwrite", dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", nil, fmt.Errorf("create %s: %w", dir, err)
	}

	written := make([]string, 0, len(templates))
	for _, t := range templates {
		src, err := render(t.name, t.body, data)
		if err != nil {
			return "", nil, err
		}
		path := filepath.Join(dir, t.name)
		if err := os.WriteFile(path, src, 0o644); err != nil {
			return "", nil, fmt.Errorf("write %s: %w", path, err)
		}
		written = append(written, path)
	}
	return dir, written, nil
}

func render(name, body string, data *workerData) ([]byte, error) {
	tmpl, err := template.New(name).Funcs(template.FuncMap{"quote": quoteAll}).Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("format %s: %w", name, err)
	}
	return src, nil
}

func newWorkerData(act *registry.Activity) (*workerData, error) {
	timeout := 15 * time.Second
	if act.Timeout != "" {
		d, err := time.ParseDuration(act.Timeout)
		if err != nil {
			return nil, fmt.Errorf("activity %q timeout: %w", act.ID, err)
		}
		timeout = d
	}
	required := stringSlice(act.InputSchema["required"])
	return &workerData{
		PackageName:  packageName(act.ID),
		TaskType:     act.TaskType,
		DisplayName:  act.DisplayName,
		Description:  act.Description,
		Timeout:      timeout,
		InputFields:  schemaFields(act.InputSchema, required),
		OutputFields: schemaFields(act.OutputSchema, stringSlice(act.OutputSchema["required"])),
		Required:     required,
	}, nil
}

func schemaFields(schema map[string]interface{}, required []string) []field {
	props, _ := schema["properties"].(map[string]interface{})
	req := make(map[string]bool, len(required))
	for _, r := range required {
		req[r] = true
	}

	out := make([]field, 0, len(props))
	for name, raw := range props {
		prop, _ := raw.(map[string]interface{})
		f := field{Name: goName(name), JSON: name, Required: req[name], Enum: stringSlice(prop["enum"])}
		switch t := prop["type"].(type) {
		case string:
			f.SchemaType = t
		case []interface{}:
			for _, v := range t {
				if s, ok := v.(string); ok {
					if s == "null" {
						f.Nullable = true
					} else {
						f.SchemaType = s
					}
				}
			}
		}
		f.GoType = goType(f.SchemaType, f.Nullable)
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JSON < out[j].JSON })
	return out
}

func goType(schemaType string, nullable bool) string {
	var t string
	switch schemaType {
	case "string":
		t = "string"
	case "integer":
		t = "int"
	case "number":
		t = "float64"
	case "boolean":
		t = "bool"
	case "object":
		return "map[string]interface{}"
	case "array":
		return "[]interface{}"
	default:
		return "interface{}"
	}
	if nullable {
		return "*" + t
	}
	return t
}

func goName(jsonName string) string {
	parts := strings.FieldsFunc(jsonName, func(r rune) bool { return r == '_' || r == '-' })
	var b strings.Builder
	for _, p := range parts {
		r := []rune(p)
		r[0] = unicode.ToUpper(r[0])
		b.WriteString(string(r))
	}
	name := b.String()
	for _, initialism := range []string{"Id", "Url", "Gpa", "Gre", "Ielts"} {
		if strings.HasSuffix(name, initialism) {
			name = strings.TrimSuffix(name, initialism) + strings.ToUpper(initialism)
		}
	}
	return name
}

func packageName(id string) string {
	return strings.ToLower(strings.NewReplacer("-", "", "_", "").Replace(id))
}

func stringSlice(v interface{}) []string {
	raw, _ := v.([]interface{})
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func quoteAll(in []string) string {
	q := make([]string, len(in))
	for i, s := range in {
		q[i] = fmt.Sprintf("%q", s)
	}
	return strings.Join(q, ", ")
}

const configTemplate = `package {{.PackageName}}

import (
	"fmt"
	"time"

	"studyabroad-workers/internal/common/config"
)

type Config struct {
	Enabled       bool          ` + "`mapstructure:\"enabled\"`" + `
	MaxJobsActive int           ` + "`mapstructure:\"max_jobs_active\"`" + `
	Timeout       time.Duration ` + "`mapstructure:\"timeout\"`" + `
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       {{printf "%d" .Timeout.Milliseconds}} * time.Millisecond,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxJobsActive <= 0 {
		return fmt.Errorf("max_jobs_active must be positive")
	}
	return nil
}

func createConfigFromAppConfig(appConfig *config.Config, customConfig *Config) *Config {
	if customConfig != nil {
		return customConfig
	}

	cfg := DefaultConfig()
	if appConfig != nil {
		if workerCfg, exists := appConfig.Workers[TaskType]; exists {
			cfg.Enabled = workerCfg.Enabled
			if workerCfg.MaxJobsActive > 0 {
				cfg.MaxJobsActive = workerCfg.MaxJobsActive
			}
			if workerCfg.Timeout > 0 {
				cfg.Timeout = time.Duration(workerCfg.Timeout) * time.Millisecond
			}
		}
	}
	return cfg
}
`

const modelsTemplate = `package {{.PackageName}}

import "studyabroad-workers/internal/common/validation"

type Input struct {
{{- range .InputFields}}
	{{.Name}} {{.GoType}} ` + "`json:\"{{.JSON}}{{if not .Required}},omitempty{{end}}\"`" + `
{{- end}}
}

type Output struct {
{{- range .OutputFields}}
	{{.Name}} {{.GoType}} ` + "`json:\"{{.JSON}}{{if not .Required}},omitempty{{end}}\"`" + `
{{- end}}
}

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{ {{- quote .Required -}} },
		Properties: map[string]validation.Property{
{{- range .InputFields}}
			"{{.JSON}}": {Type: "{{.SchemaType}}"{{if .Nullable}}, Nullable: true{{end}}{{if .Enum}}, Enum: []string{ {{- quote .Enum -}} }{{end}}},
{{- end}}
		},
	}
}

func GetOutputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
{{- range .OutputFields}}
			"{{.JSON}}": {Type: "{{.SchemaType}}"{{if .Nullable}}, Nullable: true{{end}}},
{{- end}}
		},
	}
}
`

const handlerTemplate = `package {{.PackageName}}

import (
	"context"
	"fmt"

	"studyabroad-workers/internal/common/camunda"
	"studyabroad-workers/internal/common/config"
	"studyabroad-workers/internal/common/errors"
	"studyabroad-workers/internal/common/logger"
	"studyabroad-workers/internal/engine"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// TaskType is the job type for "{{.DisplayName}}".
const TaskType = "{{.TaskType}}"

type Handler struct {
	config *Config
	engine *engine.Engine
	logger logger.Logger
	runner *camunda.Runner
}

type HandlerOptions struct {
	AppConfig    *config.Config
	Engine       *engine.Engine
	CustomConfig *Config
	Logger       logger.Logger
	Recorder     camunda.JobRecorder
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	workerConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if opts.Engine == nil {
		return nil, fmt.Errorf("%s: engine is required", TaskType)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json")
	}
	log = log.WithFields(map[string]interface{}{"worker": TaskType})

	return &Handler{
		config: workerConfig,
		engine: opts.Engine,
		logger: log,
		runner: &camunda.Runner{TaskType: TaskType, Timeout: workerConfig.Timeout, Logger: log, Recorder: opts.Recorder},
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.runner.Run(client, job, func(ctx context.Context) (interface{}, error) {
		input, err := h.parseInput(job)
		if err != nil {
			return nil, err
		}
		return h.Execute(ctx, input)
	})
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	var input Input
	if err := camunda.ParseVariables(job, GetInputSchema(), &input); err != nil {
		return nil, err
	}
	return &input, nil
}

// Execute {{if .Description}}{{.Description}}{{else}}runs the activity{{end}}
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return nil, errors.NewInternalError(fmt.Errorf("%s is not implemented", TaskType))
}

func (h *Handler) Registration() camunda.Registration {
	return camunda.Registration{TaskType: TaskType, MaxJobsActive: h.config.MaxJobsActive, Timeout: h.config.Timeout}
}

func (h *Handler) GetTaskType() string { return TaskType }

func (h *Handler) IsEnabled() bool { return h.config.Enabled }

func (h *Handler) GetConfig() *Config { return h.config }
`

const testTemplate = `package {{.PackageName}}

import (
	"encoding/json"
	"testing"

	"studyabroad-workers/internal/common/logger"
	"studyabroad-workers/internal/engine/enginetest"
	"studyabroad-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createMockJob(key int64, variables map[string]interface{}) entities.Job {
	variablesJSON, _ := json.Marshal(variables)
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:           key,
		Type:          TaskType,
		CustomHeaders: "{}",
		Variables:     string(variablesJSON),
	}}
}

func TestHandler_NewHandler(t *testing.T) {
	be := enginetest.NewBackend(t, models.UserProfile{}, nil)

	_, err := NewHandler(HandlerOptions{})
	assert.ErrorContains(t, err, "engine is required")

	h, err := NewHandler(HandlerOptions{Engine: be.Engine(t, nil), Logger: logger.NewTestLogger(t)})
	require.NoError(t, err)
	assert.Equal(t, TaskType, h.GetTaskType())
	assert.True(t, h.IsEnabled())
}
{{if .Required}}
func TestHandler_ParseInputRequiresFields(t *testing.T) {
	be := enginetest.NewBackend(t, models.UserProfile{}, nil)
	h, err := NewHandler(HandlerOptions{Engine: be.Engine(t, nil), Logger: logger.NewTestLogger(t)})
	require.NoError(t, err)

	_, err = h.parseInput(createMockJob(1, map[string]interface{}{}))
	assert.Error(t, err)
}
{{end}}`
