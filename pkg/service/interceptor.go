package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// RequestIDKey is the metadata key carrying the request id in both
// directions.
const RequestIDKey = "x-request-id"

type requestIDContextKey struct{}

// RequestIDFromContext returns the id assigned by LoggingInterceptor, or ""
// outside an intercepted call.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey{}).(string)
	return id
}

// LoggingInterceptor assigns every unary call a request id (reusing one sent
// by the client), echoes it in the response header and logs the outcome.
func LoggingInterceptor(logger *logrus.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		requestID := ""
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if ids := md.Get(RequestIDKey); len(ids) > 0 {
				requestID = ids[0]
			}
		}
		if requestID == "" {
			requestID = uuid.New().String()
		}
		ctx = context.WithValue(ctx, requestIDContextKey{}, requestID)

		if err := grpc.SetHeader(ctx, metadata.Pairs(RequestIDKey, requestID)); err != nil {
			logger.WithError(err).Debug("Failed to set request id header")
		}

		startTime := time.Now()
		resp, err := handler(ctx, req)

		entry := logger.WithFields(logrus.Fields{
			"request_id":  requestID,
			"method":      info.FullMethod,
			"code":        status.Code(err).String(),
			"duration_ms": time.Since(startTime).Milliseconds(),
		})
		if err != nil {
			entry.WithError(err).Warn("[gRPC] call failed")
		} else {
			entry.Debug("[gRPC] call completed")
		}
		return resp, err
	}
}
