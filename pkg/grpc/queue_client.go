package grpc

import (
	"fmt"

	grpcDelivery "github.com/vogiaan1904/thequeue/internal/delivery/grpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

type cleanupFunc func()

// NewQueueClient dials a queue service over plaintext gRPC.
func NewQueueClient(addr string) (grpcDelivery.QueueServiceClient, cleanupFunc, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, nil, fmt.Errorf("dial queue service %s: %w", addr, err)
	}

	return grpcDelivery.NewQueueServiceClient(conn), func() { _ = conn.Close() }, nil
}
