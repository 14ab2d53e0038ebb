// Package publish announces finished comparison reports on NATS.
package publish

import (
	"TCPSpectra/internal/model"
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Encode converts a report into a protobuf Struct with the same field names
// as the report's JSON form.
func Encode(report *model.Report) (*structpb.Struct, error) {
	s := &structpb.Struct{}
	if err := ToStruct(report, s); err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	return s, nil
}

// Decode converts a Struct produced by Encode back into a report.
func Decode(s *structpb.Struct) (*model.Report, error) {
	var report model.Report
	if err := FromStruct(s, &report); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	return &report, nil
}

// ToStruct fills dst with the JSON representation of v.
func ToStruct(v any, dst *structpb.Struct) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return protojson.Unmarshal(data, dst)
}

// FromStruct decodes src into v as if src were a JSON object.
func FromStruct(src *structpb.Struct, v any) error {
	data, err := protojson.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
