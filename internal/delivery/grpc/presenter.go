package grpc

import (
	"encoding/json"
	"fmt"

	"github.com/vogiaan1904/thequeue/internal/service"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// toStruct converts v through its JSON form.
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal %T: %w", v, err)
	}
	return jsonToStruct(data)
}

func jsonToStruct(data []byte) (*structpb.Struct, error) {
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("decode struct: %w", err)
	}
	return out, nil
}

func fromStruct(in *structpb.Struct, dst any) error {
	data, err := protojson.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}

type sessionMessage struct {
	SessionID string `json:"session_id" validate:"required"`
}

type mutationMessage struct {
	SessionID string              `json:"session_id" validate:"required"`
	DJToken   string              `json:"dj_token"`
	Kind      string              `json:"kind" validate:"required"`
	RequestID string              `json:"request_id"`
	Position  int                 `json:"position"`
	Status    string              `json:"status"`
	Request   *service.NewRequest `json:"request"`
}
