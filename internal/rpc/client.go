package rpc

import (
	"TCPSpectra/internal/compare"
	"TCPSpectra/internal/model"
	"TCPSpectra/internal/publish"
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client calls the comparison service.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Compare sends body to the server and decodes the returned report.
func (c *Client) Compare(ctx context.Context, body compare.RequestBody, opts ...grpc.CallOption) (*model.Report, error) {
	in := &structpb.Struct{}
	if err := publish.ToStruct(body, in); err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, compareMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return publish.Decode(out)
}
