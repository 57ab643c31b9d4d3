package invitations

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/ITOUMEUCK/livemory/internal/platform/requestctx"
)

const (
	// MetadataRequestID carries the caller's request id, echoed back in the
	// response header. A fresh id is minted when absent.
	MetadataRequestID = "x-livemory-request-id"
	// MetadataAcceptLanguage selects the locale of error messages.
	MetadataAcceptLanguage = "accept-language"
)

// RequestMetadataInterceptor stores the request id and locale in context and
// logs each call's outcome.
func RequestMetadataInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		requestID := firstMetadata(ctx, MetadataRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx = requestctx.WithRequestID(ctx, requestID)
		ctx = requestctx.WithLocale(ctx, firstMetadata(ctx, MetadataAcceptLanguage))
		_ = grpc.SetHeader(ctx, metadata.Pairs(MetadataRequestID, requestID))

		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)
		attrs := []any{
			"method", info.FullMethod,
			"request_id", requestID,
			"code", code.String(),
			"duration", time.Since(start),
		}
		if err != nil {
			logger.Warn("grpc.request", attrs...)
		} else {
			logger.Debug("grpc.request", attrs...)
		}
		return resp, err
	}
}

func firstMetadata(ctx context.Context, key string) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	for _, value := range md.Get(key) {
		if value = strings.TrimSpace(value); value != "" {
			return value
		}
	}
	return ""
}
