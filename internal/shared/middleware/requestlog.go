// Package middleware stamps every inbound request, gRPC or HTTP, with a
// request ID and logs its outcome. Both transports share the same
// contextkeys so a log line from either one carries the same field names.
package middleware

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"google.golang.org/grpc"

	"firestore-emulator/internal/shared/logger"
	"firestore-emulator/internal/shared/utils"
)

// UnaryServerInterceptor logs each unary RPC's method, request ID and
// duration, plus its error when the handler fails.
func UnaryServerInterceptor(log logger.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		ctx = utils.WithRequestID(ctx, uuid.NewString())
		ctx = utils.WithOperation(ctx, info.FullMethod)
		ctx = utils.WithComponent(ctx, "grpc")

		start := time.Now()
		resp, err := handler(ctx, req)
		logOutcome(log, ctx, info.FullMethod, time.Since(start), err)
		return resp, err
	}
}

// StreamServerInterceptor does the same for the streaming RPCs (RunQuery,
// RunAggregationQuery, Listen) by wrapping the handler's stream with a
// context carrying the request ID.
func StreamServerInterceptor(log logger.Logger) grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		ctx := utils.WithRequestID(ss.Context(), uuid.NewString())
		ctx = utils.WithOperation(ctx, info.FullMethod)
		ctx = utils.WithComponent(ctx, "grpc")

		start := time.Now()
		err := handler(srv, &contextServerStream{ServerStream: ss, ctx: ctx})
		logOutcome(log, ctx, info.FullMethod, time.Since(start), err)
		return err
	}
}

type contextServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *contextServerStream) Context() context.Context { return s.ctx }

func logOutcome(log logger.Logger, ctx context.Context, method string, dur time.Duration, err error) {
	fields := map[string]interface{}{
		"method":      method,
		"duration_ms": dur.Milliseconds(),
	}
	if id, gerr := utils.GetRequestIDFromContext(ctx); gerr == nil {
		fields["request_id"] = id
	}
	entry := log.WithFields(fields)
	if err != nil {
		entry.Warnf("rpc failed: %v", err)
		return
	}
	entry.Debug("rpc completed")
}

// Fiber stamps the same request ID/component onto the Fiber request context
// so HTTP handlers and gRPC handlers log with identical field names.
func Fiber(log logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := utils.WithRequestID(c.UserContext(), uuid.NewString())
		ctx = utils.WithComponent(ctx, "identitytoolkit")
		ctx = utils.WithOperation(ctx, c.Method()+" "+c.Path())
		c.SetUserContext(ctx)

		start := time.Now()
		err := c.Next()

		fields := map[string]interface{}{
			"method":      c.Method(),
			"path":        c.Path(),
			"status":      c.Response().StatusCode(),
			"duration_ms": time.Since(start).Milliseconds(),
		}
		if id, gerr := utils.GetRequestIDFromContext(ctx); gerr == nil {
			fields["request_id"] = id
		}
		entry := log.WithFields(fields)
		if err != nil {
			entry.Warnf("request failed: %v", err)
			return err
		}
		entry.Debug("request completed")
		return nil
	}
}
