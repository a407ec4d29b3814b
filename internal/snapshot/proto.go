package snapshot

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// ToStruct converts a snapshot into a protobuf Struct.
func ToStruct(s Snapshot) (*structpb.Struct, error) {
	data, err := Marshal(s)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	return structpb.NewStruct(fields)
}

// FromStruct converts a protobuf Struct back into a snapshot.
func FromStruct(st *structpb.Struct) (Snapshot, error) {
	data, err := json.Marshal(st.AsMap())
	if err != nil {
		return Snapshot{}, err
	}
	return Unmarshal(data)
}

// MarshalProto encodes a snapshot in protobuf binary form.
func MarshalProto(s Snapshot) ([]byte, error) {
	st, err := ToStruct(s)
	if err != nil {
		return nil, fmt.Errorf("build snapshot struct: %w", err)
	}
	return proto.Marshal(st)
}

// UnmarshalProto decodes the protobuf binary form.
func UnmarshalProto(data []byte) (Snapshot, error) {
	st := &structpb.Struct{}
	if err := proto.Unmarshal(data, st); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot proto: %w", err)
	}
	return FromStruct(st)
}
