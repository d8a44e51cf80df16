// Package handlers contains the HTTP handlers of the weather prediction API.
package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"weatherpredict/internal/core"
	"weatherpredict/internal/features"
	"weatherpredict/internal/prediction"
	"weatherpredict/internal/types"
)

// RootMessage is returned by GET /.
const RootMessage = "Weather Prediction API is running"

// PredictionService is the contract the handler needs from the prediction
// layer. It is defined here so tests can inject a stub.
type PredictionService interface {
	Predict(ctx context.Context, v features.Vector) (*prediction.Result, error)
	Simulate(ctx context.Context, req prediction.SimulationRequest) (*prediction.Simulation, error)
	ModelInfo() prediction.ModelInfo
}

// PredictionHandler maps HTTP requests to PredictionService methods.
type PredictionHandler struct {
	service   PredictionService
	validator *core.Validator
	logger    *slog.Logger
}

// NewPredictionHandler creates a PredictionHandler.
func NewPredictionHandler(
	svc PredictionService,
	val *core.Validator,
	logger *slog.Logger,
) *PredictionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if val == nil {
		val = core.NewValidator(logger)
	}
	return &PredictionHandler{
		service:   svc,
		validator: val,
		logger:    logger,
	}
}

// RegisterRoutes mounts the prediction endpoints at the root of r.
func (h *PredictionHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleRoot)
	r.Get("/model", h.HandleModel)
	r.Post("/predict", h.HandlePredict)
	r.Post("/simulate", h.HandleSimulate)
}

type messageResponse struct {
	Message string `json:"message"`
}

// HandleRoot handles GET /. It never touches the model, so it answers 200 even
// when no model could be loaded.
func (h *PredictionHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	core.JSON(w, r, http.StatusOK, messageResponse{Message: RootMessage})
}

// HandleModel handles GET /model.
func (h *PredictionHandler) HandleModel(w http.ResponseWriter, r *http.Request) {
	core.JSON(w, r, http.StatusOK, h.service.ModelInfo())
}

// HandlePredict handles POST /predict.
//  1. Decode the body into a features.Request.
//  2. Require all eleven fields.
//  3. Score the assembled vector.
func (h *PredictionHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	var req features.Request
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	res, err := h.service.Predict(r.Context(), req.Vector())
	if err != nil {
		h.logFailure(r, "predict", err)
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, res)
}

// HandleSimulate handles POST /simulate. The body is optional; samples and
// season default and clamp inside the service.
func (h *PredictionHandler) HandleSimulate(w http.ResponseWriter, r *http.Request) {
	var req prediction.SimulationRequest
	if err := core.DecodeOptionalJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}

	sim, err := h.service.Simulate(r.Context(), req)
	if err != nil {
		h.logFailure(r, "simulate", err)
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, sim)
}

func (h *PredictionHandler) logFailure(r *http.Request, op string, err error) {
	logger := types.LoggerFromContext(r.Context(), h.logger)
	logger.WarnContext(r.Context(), "model-dependent request failed",
		"operation", op,
		"error", err,
	)
}
