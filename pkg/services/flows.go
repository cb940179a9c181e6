package services

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dukex/flowadmin/pkg/audit"
	"github.com/dukex/flowadmin/pkg/models"
	"github.com/dukex/flowadmin/pkg/otelhelper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// FlowStore holds the active flow set and the credentials of its nodes.
type FlowStore interface {
	FlowSet() *models.FlowSet
	Reload(ctx context.Context) (string, error)
	SetFlows(ctx context.Context, flows []models.NodeConfig, deploymentType models.DeploymentType) (string, error)
	AddFlow(ctx context.Context, flow *models.Flow) (string, error)
	Flow(id string) (*models.Flow, bool)
	UpdateFlow(ctx context.Context, id string, flow *models.Flow) error
	RemoveFlow(ctx context.Context, id string) error
	Credentials(id string) (models.Credentials, bool)
	CredentialDefinition(nodeType string) models.CredentialDefinition
}

// Options carries the caller identity, which is only passed on to audit.
type Options struct {
	User string
}

type SetFlowsRequest struct {
	Options

	DeploymentType models.DeploymentType
	Flows          *models.FlowSet
}

type FlowRequest struct {
	Options

	ID   string
	Flow *models.Flow
}

type CredentialsRequest struct {
	Options

	Type string
	ID   string
}

// Flows implements the flow administration operations. It keeps no state of
// its own between calls.
type Flows struct {
	store  FlowStore
	audit  audit.Sink
	tracer trace.Tracer
	logger *slog.Logger
}

// NewFlows creates the flow administration service. A nil tracer falls back
// to the global tracer provider.
func NewFlows(store FlowStore, sink audit.Sink, tracer trace.Tracer, logger *slog.Logger) *Flows {
	if tracer == nil {
		tracer = otel.Tracer("flowadmin")
	}

	return &Flows{
		store:  store,
		audit:  sink,
		tracer: tracer,
		logger: logger.With("module", "flows_service"),
	}
}

func (f *Flows) emit(ctx context.Context, event string, opts Options, fields map[string]any) {
	f.audit.Audit(ctx, audit.NewEvent(event, opts.User, fields))
}

// GetFlows returns the active flow set.
func (f *Flows) GetFlows(ctx context.Context, opts Options) *models.FlowSet {
	ctx, span := otelhelper.StartSpan(ctx, f.tracer, "flows.get")
	defer span.End()

	flowSet := f.store.FlowSet()

	span.SetAttributes(attribute.String(otelhelper.RevisionKey, flowSet.Rev))
	f.emit(ctx, audit.EventFlowsGet, opts, nil)

	return flowSet
}

// SetFlows deploys a flow set and returns the new revision. A payload
// carrying a rev must match the active revision; reload skips the check and
// ignores the payload.
func (f *Flows) SetFlows(ctx context.Context, req SetFlowsRequest) (string, error) {
	const op = "SetFlows"

	deploymentType := req.DeploymentType.OrDefault()

	ctx, span := otelhelper.StartSpan(ctx, f.tracer, "flows.set",
		attribute.String(otelhelper.DeploymentTypeKey, string(deploymentType)),
	)
	defer span.End()

	if !deploymentType.IsValid() {
		err := newValidationFailed(op, CodeInvalidDeploymentType,
			"unknown deployment type "+string(deploymentType), nil)
		f.emit(ctx, audit.EventFlowsSet, req.Options, map[string]any{"type": string(deploymentType), "error": err.Code})
		otelhelper.SetError(span, err)

		return "", err
	}

	if deploymentType == models.DeploymentTypeReload {
		f.emit(ctx, audit.EventFlowsSet, req.Options, map[string]any{"type": string(deploymentType)})

		rev, err := f.store.Reload(ctx)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to reload flows", "path", "reload", "error", err)
			otelhelper.SetError(span, err)

			return "", err
		}

		span.SetAttributes(attribute.String(otelhelper.RevisionKey, rev))

		return rev, nil
	}

	if req.Flows == nil {
		err := newValidationFailed(op, CodeInvalidRequest, "flows payload is required", nil)
		f.emit(ctx, audit.EventFlowsSet, req.Options, map[string]any{"type": string(deploymentType), "error": err.Code})
		otelhelper.SetError(span, err)

		return "", err
	}

	if req.Flows.Rev != "" {
		current := f.store.FlowSet().Rev
		if req.Flows.Rev != current {
			err := newVersionConflict(op)
			f.emit(ctx, audit.EventFlowsSet, req.Options, map[string]any{"type": string(deploymentType), "error": err.Code})
			otelhelper.SetError(span, err,
				attribute.String(otelhelper.RevisionKey, current),
			)

			return "", err
		}
	}

	f.emit(ctx, audit.EventFlowsSet, req.Options, map[string]any{"type": string(deploymentType)})

	rev, err := f.store.SetFlows(ctx, req.Flows.Flows, deploymentType)
	if err != nil {
		f.logger.WarnContext(ctx, "Failed to save flows", "path", "save", "deployment_type", deploymentType, "error", err)
		otelhelper.SetError(span, err)

		return "", err
	}

	span.SetAttributes(attribute.String(otelhelper.RevisionKey, rev))

	return rev, nil
}

// AddFlow adds a flow and returns its id. Every store rejection is reported
// as a bad request.
func (f *Flows) AddFlow(ctx context.Context, req FlowRequest) (string, error) {
	const op = "AddFlow"

	ctx, span := otelhelper.StartSpan(ctx, f.tracer, "flow.add")
	defer span.End()

	id, err := f.store.AddFlow(ctx, req.Flow)
	if err != nil {
		serviceErr := normalizeStoreError(op, err)
		if serviceErr.Kind == KindNotFound {
			serviceErr.Kind = KindValidationFailed
			serviceErr.Status = http.StatusBadRequest
		}

		f.emit(ctx, audit.EventFlowAdd, req.Options, map[string]any{"error": serviceErr.Code})
		otelhelper.SetError(span, serviceErr)

		return "", serviceErr
	}

	span.SetAttributes(attribute.String(otelhelper.FlowIDKey, id))
	f.emit(ctx, audit.EventFlowAdd, req.Options, map[string]any{"id": id})

	return id, nil
}

// GetFlow returns a single flow.
func (f *Flows) GetFlow(ctx context.Context, req FlowRequest) (*models.Flow, error) {
	const op = "GetFlow"

	ctx, span := otelhelper.StartSpan(ctx, f.tracer, "flow.get",
		attribute.String(otelhelper.FlowIDKey, req.ID),
	)
	defer span.End()

	flow, ok := f.store.Flow(req.ID)
	if !ok {
		err := newNotFound(op, nil)
		f.emit(ctx, audit.EventFlowGet, req.Options, map[string]any{"id": req.ID, "error": err.Code})
		otelhelper.SetError(span, err)

		return nil, err
	}

	f.emit(ctx, audit.EventFlowGet, req.Options, map[string]any{"id": req.ID})

	return flow, nil
}

// UpdateFlow replaces an existing flow and returns its id.
func (f *Flows) UpdateFlow(ctx context.Context, req FlowRequest) (string, error) {
	const op = "UpdateFlow"

	ctx, span := otelhelper.StartSpan(ctx, f.tracer, "flow.update",
		attribute.String(otelhelper.FlowIDKey, req.ID),
	)
	defer span.End()

	err := f.store.UpdateFlow(ctx, req.ID, req.Flow)
	if err != nil {
		serviceErr := normalizeStoreError(op, err)
		f.emit(ctx, audit.EventFlowUpdate, req.Options, map[string]any{"id": req.ID, "error": serviceErr.Code})
		otelhelper.SetError(span, serviceErr)

		return "", serviceErr
	}

	f.emit(ctx, audit.EventFlowUpdate, req.Options, map[string]any{"id": req.ID})

	return req.ID, nil
}

// DeleteFlow removes a flow.
func (f *Flows) DeleteFlow(ctx context.Context, req FlowRequest) error {
	const op = "DeleteFlow"

	ctx, span := otelhelper.StartSpan(ctx, f.tracer, "flow.remove",
		attribute.String(otelhelper.FlowIDKey, req.ID),
	)
	defer span.End()

	err := f.store.RemoveFlow(ctx, req.ID)
	if err != nil {
		serviceErr := normalizeStoreError(op, err)
		f.emit(ctx, audit.EventFlowRemove, req.Options, map[string]any{"id": req.ID, "error": serviceErr.Code})
		otelhelper.SetError(span, serviceErr)

		return serviceErr
	}

	f.emit(ctx, audit.EventFlowRemove, req.Options, map[string]any{"id": req.ID})

	return nil
}

// GetNodeCredentials returns a node's credentials with secrets redacted.
// Password fields are reported as has_<field>; other declared fields pass
// through with an empty string default. Undeclared fields are dropped.
func (f *Flows) GetNodeCredentials(ctx context.Context, req CredentialsRequest) map[string]any {
	ctx, span := otelhelper.StartSpan(ctx, f.tracer, "credentials.get",
		attribute.String(otelhelper.NodeIDKey, req.ID),
		attribute.String(otelhelper.NodeTypeKey, req.Type),
	)
	defer span.End()

	f.emit(ctx, audit.EventCredentialsGet, req.Options, map[string]any{"type": req.Type, "id": req.ID})

	stored, ok := f.store.Credentials(req.ID)
	if !ok {
		return map[string]any{}
	}

	return redact(f.store.CredentialDefinition(req.Type), stored)
}

func redact(definition models.CredentialDefinition, stored models.Credentials) map[string]any {
	result := make(map[string]any, len(definition))

	for field, declared := range definition {
		if declared.IsPassword() {
			result["has_"+field] = stored.IsSet(field)

			continue
		}

		value, ok := stored[field]
		if !ok || value == nil {
			value = ""
		}

		result[field] = value
	}

	return result
}
