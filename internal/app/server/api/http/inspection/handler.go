package inspection

import (
	"context"
	"errors"

	"fieldinspect/internal/app/server/api/http/middleware/auth"
	"fieldinspect/internal/domain/authority"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"
)

type Handler struct {
	service    authority.Servicer
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service authority.Servicer, log *slog.Logger, mws huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		log:        log,
		middleware: mws,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.pushOp(), h.push)
	huma.Register(api, h.getOp(), h.get)
}

func (h *Handler) push(ctx context.Context, input *pushInput) (*pushOutput, error) {
	deviceID, ok := auth.GetDeviceID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	stored, err := h.service.Push(ctx, authority.PushCommand{
		LocalID:               input.LocalID,
		Version:               input.Body.Version,
		ExpectedServerVersion: input.Body.ExpectedServerVersion,
		Payload:               input.Body.Payload,
		DeviceID:              deviceID,
	})
	if err != nil {
		var conflict *authority.ConflictError
		switch {
		case errors.As(err, &conflict):
			return nil, &conflictResponse{
				ServerID:      conflict.Stored.ServerID,
				ServerVersion: conflict.Stored.Version,
				Payload:       conflict.Stored.Payload,
			}
		case errors.Is(err, authority.ErrInvalidVersion), errors.Is(err, authority.ErrInvalidPayload):
			return nil, huma.Error422UnprocessableEntity(err.Error())
		default:
			h.log.Error("push failed", "local_id", input.LocalID, "error", err)
			return nil, huma.Error500InternalServerError("push failed")
		}
	}

	return &pushOutput{
		Body: pushResponse{
			ServerID:      stored.ServerID,
			ServerVersion: stored.Version,
		},
	}, nil
}

func (h *Handler) get(ctx context.Context, input *getInput) (*getOutput, error) {
	if _, ok := auth.GetDeviceID(ctx); !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	ins, err := h.service.Get(ctx, input.LocalID)
	if errors.Is(err, authority.ErrNotFound) {
		return nil, huma.Error404NotFound("inspection not found")
	}
	if err != nil {
		h.log.Error("get failed", "local_id", input.LocalID, "error", err)
		return nil, huma.Error500InternalServerError("get failed")
	}

	return &getOutput{
		Body: inspectionResponse{
			LocalID:   ins.LocalID,
			ServerID:  ins.ServerID,
			Version:   ins.Version,
			Payload:   ins.Payload,
			DeviceID:  ins.DeviceID,
			UpdatedAt: ins.UpdatedAt,
		},
	}, nil
}
