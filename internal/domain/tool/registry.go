package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/rs/zerolog"

	"taskpilot/chat-api/internal/domain/llm"
	"taskpilot/chat-api/internal/utils/platformerrors"
)

// Name identifies a registered tool.
type Name string

const (
	NameAddTask      Name = "add_task"
	NameListTasks    Name = "list_tasks"
	NameCompleteTask Name = "complete_task"
	NameDeleteTask   Name = "delete_task"
	NameTagTask      Name = "tag_task"
)

type handlerFunc func(ctx context.Context, ownerID string, args json.RawMessage) (*Result, error)

type entry struct {
	definition llm.ToolDefinition
	handler    handlerFunc
}

// Registry holds the closed set of tools exposed to the model. It is
// assembled once at startup and read-only afterwards.
type Registry struct {
	entries map[Name]entry
	order   []Name
	logger  zerolog.Logger
}

var validate = validator.New()

// register binds a typed argument struct to a handler. Arguments are
// strictly decoded: unknown fields and malformed JSON are validation
// errors surfaced before the handler runs.
func register[A any](r *Registry, name Name, description string, fn func(ctx context.Context, ownerID string, args A) (*Result, error)) {
	reflector := jsonschema.Reflector{
		DoNotReference:            true,
		ExpandedStruct:            true,
		AllowAdditionalProperties: false,
	}
	schema := reflector.Reflect(new(A))
	params := schemaToMap(schema)

	r.entries[name] = entry{
		definition: llm.ToolDefinition{
			Type: "function",
			Function: llm.ToolFunctionSchema{
				Name:        string(name),
				Description: description,
				Parameters:  params,
			},
		},
		handler: func(ctx context.Context, ownerID string, raw json.RawMessage) (*Result, error) {
			var args A
			decoder := json.NewDecoder(bytes.NewReader(raw))
			decoder.DisallowUnknownFields()
			if err := decoder.Decode(&args); err != nil {
				return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
					platformerrors.ErrorTypeValidation,
					fmt.Sprintf("invalid arguments for tool %s", name), err)
			}
			if err := validate.Struct(&args); err != nil {
				return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
					platformerrors.ErrorTypeValidation,
					fmt.Sprintf("invalid arguments for tool %s", name), err)
			}
			return fn(ctx, ownerID, args)
		},
	}
	r.order = append(r.order, name)
}

func schemaToMap(schema *jsonschema.Schema) map[string]any {
	raw, err := json.Marshal(schema)
	if err != nil {
		return map[string]any{"type": "object"}
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return map[string]any{"type": "object"}
	}
	delete(out, "$schema")
	return out
}

// Definitions returns the tool manifest in registration order.
func (r *Registry) Definitions() []llm.ToolDefinition {
	out := make([]llm.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.entries[name].definition)
	}
	return out
}

// Execute runs the named tool for the given owner. Unknown names are
// validation errors.
func (r *Registry) Execute(ctx context.Context, ownerID string, name string, args json.RawMessage) (*Result, error) {
	e, ok := r.entries[Name(name)]
	if !ok {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation,
			fmt.Sprintf("unknown tool %q", name), nil)
	}
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	r.logger.Debug().Str("tool", name).Msg("executing tool")
	return e.handler(ctx, ownerID, args)
}
