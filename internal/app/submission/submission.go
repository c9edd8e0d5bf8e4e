// Package submission turns form input into a listing document stamped
// with its author and writes it to the store.
package submission

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"investorconnect/internal/app/gate"
	"investorconnect/internal/app/session"
	"investorconnect/internal/core/domain"
	"investorconnect/internal/docstore"

	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"
)

// DashboardRoute is where a successful submission navigates
const DashboardRoute = "/dashboard"

// CategoryRequiredMessage is reported when an investor proposal names no category
const CategoryRequiredMessage = "Please select at least one business category"

// PersistMode controls whether Submit writes to the store
type PersistMode string

const (
	// PersistWrite adds the document to the store
	PersistWrite PersistMode = "write"
	// PersistLegacy reports success without writing anything
	PersistLegacy PersistMode = "legacy"
)

// ParsePersistMode reads a configured mode; empty means PersistWrite
func ParsePersistMode(s string) (PersistMode, error) {
	switch PersistMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", PersistWrite:
		return PersistWrite, nil
	case PersistLegacy:
		return PersistLegacy, nil
	default:
		return "", fmt.Errorf("unknown persist mode %q (want write or legacy)", s)
	}
}

var (
	// ErrNotAllowed is returned when the session may not use the form
	ErrNotAllowed = errors.New("submission not allowed")
	// ErrValidation is returned for missing or malformed fields
	ErrValidation = errors.New("submission invalid")
)

// DeniedError carries the gate decision that rejected the submission
type DeniedError struct {
	Decision gate.Decision
}

func (e *DeniedError) Error() string { return e.Decision.Message }
func (e *DeniedError) Unwrap() error { return ErrNotAllowed }

// ValidationError lists every problem found in the input
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string { return strings.Join(e.Problems, "; ") }
func (e *ValidationError) Unwrap() error { return ErrValidation }

// Result describes a successful submission
type Result struct {
	// ID is empty when nothing was persisted
	ID        string
	Persisted bool
	Payload   map[string]interface{}
	Message   string
	Navigate  string
}

// Form submits listings of any kind
type Form struct {
	store docstore.Store
	mode  PersistMode
	log   *zap.Logger
	now   func() time.Time
}

// NewForm creates a form writer
func NewForm(store docstore.Store, mode PersistMode, log *zap.Logger) *Form {
	if log == nil {
		log = zap.NewNop()
	}
	if mode == "" {
		mode = PersistWrite
	}
	return &Form{store: store, mode: mode, log: log, now: time.Now}
}

// Mode returns the persist mode
func (f *Form) Mode() PersistMode {
	return f.mode
}

// Submit validates input for kind k, stamps it with the session's
// identity and persists it according to the form's mode.
func (f *Form) Submit(ctx context.Context, st session.State, k domain.KindSpec, input map[string]string) (Result, error) {
	if d := gate.ForCreator(k).Evaluate(st); d.Variant != gate.Allowed {
		return Result{}, &DeniedError{Decision: d}
	}

	payload, err := Build(k, input, st.Identity.Email)
	if err != nil {
		return Result{}, err
	}

	payload["createdBy"] = st.Identity.UID
	payload["creatorName"] = st.Identity.DisplayName
	payload["createdAt"] = domain.FormatTime(f.now())
	payload["status"] = domain.StatusActive

	res := Result{Payload: payload, Message: k.SubmitSuccess, Navigate: DashboardRoute}

	if f.mode == PersistLegacy {
		f.log.Warn("submission not persisted",
			zap.String("collection", k.Collection),
			zap.String("mode", string(f.mode)),
			zap.Any("payload", payload))
		return res, nil
	}

	id, err := f.store.Add(ctx, k.Collection, payload)
	if err != nil {
		f.log.Error("failed to add listing", zap.String("collection", k.Collection), zap.Error(err))
		return Result{}, fmt.Errorf("add %s: %w", k.Collection, err)
	}
	res.ID = id
	res.Persisted = true
	f.log.Info("listing submitted",
		zap.String("collection", k.Collection),
		zap.String("id", id),
		zap.String("uid", st.Identity.UID))
	return res, nil
}

// Build parses and validates the form input of kind k. defaultEmail
// fills an empty contactEmail.
func Build(k domain.KindSpec, input map[string]string, defaultEmail string) (map[string]interface{}, error) {
	fields := Fields(k.Kind)
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownKind, k.Kind)
	}

	known := map[string]bool{}
	for _, f := range fields {
		known[f.Name] = true
	}
	var problems []string
	var unknown []string
	for name := range input {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		problems = append(problems, fmt.Sprintf("unknown field %q", name))
	}

	payload := map[string]interface{}{}
	for _, f := range fields {
		raw := strings.TrimSpace(input[f.Name])
		if f.Name == "contactEmail" && raw == "" {
			raw = defaultEmail
		}

		switch f.Type {
		case Number:
			if raw == "" {
				continue
			}
			n, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				problems = append(problems, fmt.Sprintf("%s must be a number", f.Label))
				continue
			}
			payload[f.Name] = n
		case MultiChoice, List:
			payload[f.Name] = splitList(raw)
		default:
			if raw == "" && f.Required {
				continue
			}
			payload[f.Name] = raw
		}
	}

	problems = append(problems, validate(fields, payload)...)
	if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}
	return payload, nil
}

func validate(fields []Field, payload map[string]interface{}) []string {
	labels := map[string]string{}
	for _, f := range fields {
		labels[f.Name] = f.Label
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema(fields)),
		gojsonschema.NewGoLoader(payload),
	)
	if err != nil {
		return []string{fmt.Sprintf("validation error: %v", err)}
	}
	if result.Valid() {
		return nil
	}

	var problems []string
	for _, desc := range result.Errors() {
		name := desc.Field()
		if desc.Type() == "required" {
			if p, ok := desc.Details()["property"].(string); ok {
				name = p
			}
		}
		// categories[0] -> categories
		if i := strings.IndexAny(name, ".["); i > 0 {
			name = name[:i]
		}
		label := labels[name]
		if label == "" {
			label = name
		}
		switch desc.Type() {
		case "required", "string_gte":
			problems = append(problems, fmt.Sprintf("%s is required", label))
		case "array_min_items":
			if name == "categories" {
				problems = append(problems, CategoryRequiredMessage)
				continue
			}
			problems = append(problems, fmt.Sprintf("%s is required", label))
		default:
			problems = append(problems, fmt.Sprintf("%s: %s", label, desc.Description()))
		}
	}
	sort.Strings(problems)
	return problems
}

// splitList splits comma-separated input, trimming blanks
func splitList(s string) []interface{} {
	out := []interface{}{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
