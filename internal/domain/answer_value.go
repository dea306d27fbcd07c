package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// CorrectAnswer is the grading key of a question, one variant per question
// type. Variants marshal to a tagged JSON envelope so assessment documents
// round-trip through storage.
type CorrectAnswer interface {
	answerKind() string
}

// MCQAnswer keys a single-correct question.
type MCQAnswer struct {
	OptionID string
}

// MSQAnswer keys a multi-correct question; OptionIDs is a normalized set.
type MSQAnswer struct {
	OptionIDs []string
}

// NATAnswer keys a numeric question accepted within a symmetric tolerance.
type NATAnswer struct {
	Value     float64
	Tolerance float64
}

func (MCQAnswer) answerKind() string { return "mcq" }
func (MSQAnswer) answerKind() string { return "msq" }
func (NATAnswer) answerKind() string { return "nat" }

// AnswerValue is a student-submitted value, one variant per question type.
type AnswerValue interface {
	valueKind() string
}

// MCQValue selects a single option.
type MCQValue struct {
	OptionID string
}

// MSQValue selects a set of options; OptionIDs is normalized on decode.
type MSQValue struct {
	OptionIDs []string
}

// NATValue carries a numeric answer.
type NATValue struct {
	Number float64
}

func (MCQValue) valueKind() string { return "mcq" }
func (MSQValue) valueKind() string { return "msq" }
func (NATValue) valueKind() string { return "nat" }

// answerEnvelope is the shared wire form for keys and submitted values.
type answerEnvelope struct {
	Kind      string   `json:"kind"`
	OptionID  string   `json:"optionId,omitempty"`
	OptionIDs []string `json:"optionIds,omitempty"`
	Value     *float64 `json:"value,omitempty"`
	Tolerance *float64 `json:"tolerance,omitempty"`
	Number    *float64 `json:"number,omitempty"`
}

func (a MCQAnswer) MarshalJSON() ([]byte, error) {
	return json.Marshal(answerEnvelope{Kind: a.answerKind(), OptionID: a.OptionID})
}

func (a MSQAnswer) MarshalJSON() ([]byte, error) {
	return json.Marshal(answerEnvelope{Kind: a.answerKind(), OptionIDs: NormalizeOptionSet(a.OptionIDs)})
}

func (a NATAnswer) MarshalJSON() ([]byte, error) {
	value, tolerance := a.Value, a.Tolerance
	return json.Marshal(answerEnvelope{Kind: a.answerKind(), Value: &value, Tolerance: &tolerance})
}

func (v MCQValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(answerEnvelope{Kind: v.valueKind(), OptionID: v.OptionID})
}

func (v MSQValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(answerEnvelope{Kind: v.valueKind(), OptionIDs: NormalizeOptionSet(v.OptionIDs)})
}

func (v NATValue) MarshalJSON() ([]byte, error) {
	number := v.Number
	return json.Marshal(answerEnvelope{Kind: v.valueKind(), Number: &number})
}

// DecodeCorrectAnswer parses a grading-key envelope. Structural problems are
// reported as ErrMalformedQuestion because they make the question ungradable.
func DecodeCorrectAnswer(data []byte) (CorrectAnswer, error) {
	var env answerEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedQuestion, err)
	}
	switch env.Kind {
	case "mcq":
		if env.OptionID == "" {
			return nil, fmt.Errorf("%w: mcq key without option id", ErrMalformedQuestion)
		}
		return MCQAnswer{OptionID: env.OptionID}, nil
	case "msq":
		ids := NormalizeOptionSet(env.OptionIDs)
		if len(ids) == 0 {
			return nil, fmt.Errorf("%w: msq key without option ids", ErrMalformedQuestion)
		}
		return MSQAnswer{OptionIDs: ids}, nil
	case "nat":
		if env.Value == nil {
			return nil, fmt.Errorf("%w: nat key without value", ErrMalformedQuestion)
		}
		tolerance := 0.0
		if env.Tolerance != nil {
			tolerance = *env.Tolerance
		}
		if tolerance < 0 || math.IsNaN(tolerance) {
			return nil, fmt.Errorf("%w: nat key with negative tolerance", ErrMalformedQuestion)
		}
		return NATAnswer{Value: *env.Value, Tolerance: tolerance}, nil
	default:
		return nil, fmt.Errorf("%w: unknown answer kind %q", ErrMalformedQuestion, env.Kind)
	}
}

// DecodeAnswerValue parses a submitted-value envelope. Structural problems are
// the caller's fault and reported as ErrInvalidAnswer.
func DecodeAnswerValue(data []byte) (AnswerValue, error) {
	var env answerEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAnswer, err)
	}
	switch env.Kind {
	case "mcq":
		if env.OptionID == "" {
			return nil, fmt.Errorf("%w: mcq value without option id", ErrInvalidAnswer)
		}
		return MCQValue{OptionID: env.OptionID}, nil
	case "msq":
		ids := NormalizeOptionSet(env.OptionIDs)
		if len(ids) == 0 {
			return nil, fmt.Errorf("%w: msq value without option ids", ErrInvalidAnswer)
		}
		return MSQValue{OptionIDs: ids}, nil
	case "nat":
		if env.Number == nil {
			return nil, fmt.Errorf("%w: nat value without number", ErrInvalidAnswer)
		}
		if math.IsNaN(*env.Number) || math.IsInf(*env.Number, 0) {
			return nil, fmt.Errorf("%w: nat value is not a finite number", ErrInvalidAnswer)
		}
		return NATValue{Number: *env.Number}, nil
	default:
		return nil, fmt.Errorf("%w: unknown answer kind %q", ErrInvalidAnswer, env.Kind)
	}
}

// EncodeAnswerValue renders a submitted value to its JSON envelope.
func EncodeAnswerValue(v AnswerValue) ([]byte, error) {
	if v == nil {
		return nil, fmt.Errorf("%w: missing value", ErrInvalidAnswer)
	}
	return json.Marshal(v)
}

// NormalizeOptionSet sorts and deduplicates option IDs so MSQ sets compare by
// value.
func NormalizeOptionSet(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// SameOptionSet reports whether two normalized option sets are equal.
func SameOptionSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
