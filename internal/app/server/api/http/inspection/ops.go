package inspection

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) pushOp() huma.Operation {
	return huma.Operation{
		OperationID: "inspections-push",
		Method:      http.MethodPost,
		Path:        "/inspections/{localId}",
		Summary:     "Push a record version",
		Description: "Stores the version if expectedServerVersion matches what the server holds. " +
			"Otherwise responds 409 with the stored snapshot.",
		Tags:        []string{"inspections"},
		Security:    []map[string][]string{{"bearer": {}}},
		Errors:      []int{http.StatusUnauthorized, http.StatusConflict, http.StatusUnprocessableEntity},
		Middlewares: h.middleware,
	}
}

func (h *Handler) getOp() huma.Operation {
	return huma.Operation{
		OperationID: "inspections-get",
		Method:      http.MethodGet,
		Path:        "/inspections/{localId}",
		Summary:     "Get the stored record",
		Tags:        []string{"inspections"},
		Security:    []map[string][]string{{"bearer": {}}},
		Errors:      []int{http.StatusUnauthorized, http.StatusNotFound},
		Middlewares: h.middleware,
	}
}
