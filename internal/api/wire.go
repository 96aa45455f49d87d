package api

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/attritionlab/attrition-engine/internal/models"
)

// Request field names.
const (
	FieldFilter    = "filter"
	FieldKind      = "kind"
	FieldDelimiter = "delimiter"
)

// FilterFromStruct decodes the "filter" member of req. A missing or null
// filter selects every row.
func FilterFromStruct(req *structpb.Struct) (models.FilterSpec, error) {
	if req == nil {
		return nil, nil
	}
	v, ok := req.GetFields()[FieldFilter]
	if !ok {
		return nil, nil
	}
	if _, isNull := v.GetKind().(*structpb.Value_NullValue); isNull {
		return nil, nil
	}
	if v.GetStructValue() == nil {
		return nil, fmt.Errorf("%s must be an object", FieldFilter)
	}
	data, err := json.Marshal(v.GetStructValue().AsMap())
	if err != nil {
		return nil, fmt.Errorf("encode filter: %w", err)
	}
	return ParseFilterJSON(data)
}

// ParseFilterJSON decodes the JSON filter form shared by gRPC, HTTP and the
// CLI, e.g. {"Department": {"values": ["Sales"]}}.
func ParseFilterJSON(data []byte) (models.FilterSpec, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var spec models.FilterSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("decode filter: %w", err)
	}
	return spec, nil
}

// StringFromStruct returns a string member of req, or "" when absent.
func StringFromStruct(req *structpb.Struct, key string) (string, error) {
	if req == nil {
		return "", nil
	}
	v, ok := req.GetFields()[key]
	if !ok {
		return "", nil
	}
	s, isString := v.GetKind().(*structpb.Value_StringValue)
	if !isString {
		return "", fmt.Errorf("%s must be a string", key)
	}
	return s.StringValue, nil
}

// ToStruct converts any JSON-encodable value into a Struct. v must encode as
// a JSON object.
func ToStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("response is not an object: %w", err)
	}
	return structpb.NewStruct(doc)
}

// FromStruct decodes a Struct into out via its JSON form.
func FromStruct(s *structpb.Struct, out any) error {
	data, err := json.Marshal(s.AsMap())
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
