package otelhelper

import (
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrorCodeKey holds the machine readable code of a failed operation.
const ErrorCodeKey = "flowadmin.error.code"

// coder is implemented by errors that carry an API error code.
type coder interface {
	ErrorCode() string
}

// SetError marks the span as failed. When err, or an error it wraps, carries
// an error code it is recorded on the span as ErrorCodeKey.
func SetError(span trace.Span, err error, attrs ...attribute.KeyValue) {
	var coded coder
	if errors.As(err, &coded) && coded.ErrorCode() != "" {
		span.SetAttributes(attribute.String(ErrorCodeKey, coded.ErrorCode()))
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.AddEvent("error_occurred", trace.WithAttributes(attrs...))
}
