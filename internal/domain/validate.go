package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// snapshotValidate checks raw snapshot objects. Safe for concurrent use.
var snapshotValidate = newSnapshotValidator()

func newSnapshotValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// rawObject mirrors DrawingObject with pointer fields so that absent keys
// can be told apart from zero values.
type rawObject struct {
	ID     *string  `json:"id"     validate:"required,min=1"`
	Type   *string  `json:"type"   validate:"required,min=1"`
	X      *float64 `json:"x"      validate:"required"`
	Y      *float64 `json:"y"      validate:"required"`
	Width  *float64 `json:"width"  validate:"required,gte=0"`
	Height *float64 `json:"height" validate:"required,gte=0"`
}

type wrappedSnapshot struct {
	Objects []rawObject `json:"objects"`
}

// DecodeSnapshot parses a snapshot document into typed drawing objects.
// It accepts either a JSON array of objects or {"objects": [...]}.
// Every failure is an *InputError of kind ErrorMalformedInput.
func DecodeSnapshot(data []byte) ([]DrawingObject, error) {
	raws, err := decodeRaw(data)
	if err != nil {
		return nil, NewInputError(ErrorMalformedInput, "", err)
	}

	objects := make([]DrawingObject, 0, len(raws))
	seen := make(map[string]int, len(raws))
	for i, r := range raws {
		if err := snapshotValidate.Struct(r); err != nil {
			return nil, NewInputError(ErrorMalformedInput, "", describeInvalid(i, r, err))
		}
		if first, dup := seen[*r.ID]; dup {
			return nil, NewInputError(ErrorMalformedInput, "",
				fmt.Errorf("object %d: duplicate id %q (first seen at object %d)", i, *r.ID, first))
		}
		seen[*r.ID] = i
		objects = append(objects, DrawingObject{
			ID:     *r.ID,
			Type:   ObjectType(*r.Type),
			X:      *r.X,
			Y:      *r.Y,
			Width:  *r.Width,
			Height: *r.Height,
		})
	}
	return objects, nil
}

// ValidateObjects applies the snapshot rules to already typed objects,
// which only leaves identity checks.
func ValidateObjects(objects []DrawingObject) error {
	seen := make(map[string]int, len(objects))
	for i, o := range objects {
		if o.ID == "" {
			return NewInputError(ErrorMalformedInput, "", fmt.Errorf("object %d: field id is required", i))
		}
		if o.Type == "" {
			return NewInputError(ErrorMalformedInput, "", fmt.Errorf("object %d (id %q): field type is required", i, o.ID))
		}
		if o.Width < 0 || o.Height < 0 {
			return NewInputError(ErrorMalformedInput, "", fmt.Errorf("object %d (id %q): width and height must not be negative", i, o.ID))
		}
		if first, dup := seen[o.ID]; dup {
			return NewInputError(ErrorMalformedInput, "",
				fmt.Errorf("object %d: duplicate id %q (first seen at object %d)", i, o.ID, first))
		}
		seen[o.ID] = i
	}
	return nil
}

// ValidateManifest checks that a manifest has at least one pair and that
// every pair names both snapshots.
func ValidateManifest(m Manifest) error {
	if err := snapshotValidate.Struct(m); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) || len(verrs) == 0 {
			return fmt.Errorf("invalid manifest: %w", err)
		}
		fe := verrs[0]
		if fe.Field() == "pairs" {
			return errors.New("invalid manifest: no pairs")
		}
		return fmt.Errorf("invalid manifest: %s is required", strings.TrimPrefix(fe.Namespace(), "Manifest."))
	}
	return nil
}

// DecodeJob parses a queued job message. A missing drawing id falls back
// to the job id.
func DecodeJob(data []byte) (Job, error) {
	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return Job{}, fmt.Errorf("parsing job: %w", err)
	}
	if err := snapshotValidate.Struct(job); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return Job{}, fmt.Errorf("invalid job: field %s is required", verrs[0].Field())
		}
		return Job{}, fmt.Errorf("invalid job: %w", err)
	}
	if job.DrawingID == "" {
		job.DrawingID = job.JobID
	}
	return job, nil
}

// UnknownJobID stands in for the id of a job message that could not be read.
const UnknownJobID = "unknown"

// JobIDHint recovers the job id from a message DecodeJob rejected, or
// UnknownJobID when the document does not carry one.
func JobIDHint(data []byte) string {
	var partial struct {
		JobID string `json:"job_id"`
	}
	if err := json.Unmarshal(data, &partial); err != nil || partial.JobID == "" {
		return UnknownJobID
	}
	return partial.JobID
}

func decodeRaw(data []byte) ([]rawObject, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("empty snapshot document")
	}

	if trimmed[0] == '{' {
		var w wrappedSnapshot
		if err := json.Unmarshal(trimmed, &w); err != nil {
			return nil, fmt.Errorf("parsing snapshot: %w", err)
		}
		if w.Objects == nil {
			return nil, errors.New(`snapshot object has no "objects" array`)
		}
		return w.Objects, nil
	}

	var raws []rawObject
	if err := json.Unmarshal(trimmed, &raws); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}
	return raws, nil
}

func describeInvalid(index int, r rawObject, err error) error {
	label := fmt.Sprintf("object %d", index)
	if r.ID != nil && *r.ID != "" {
		label = fmt.Sprintf("object %d (id %q)", index, *r.ID)
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("%s: %w", label, err)
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s: field %s is required", label, fe.Field())
	case "min":
		return fmt.Errorf("%s: field %s must not be empty", label, fe.Field())
	case "gte":
		return fmt.Errorf("%s: field %s must be >= %s", label, fe.Field(), fe.Param())
	default:
		return fmt.Errorf("%s: field %s failed %q", label, fe.Field(), fe.Tag())
	}
}
