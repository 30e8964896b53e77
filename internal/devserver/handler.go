package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/2beens/fitcalc/internal/calculations"
	"github.com/2beens/fitcalc/internal/calculators"
	"github.com/2beens/fitcalc/internal/telemetry/tracing"
	"github.com/2beens/fitcalc/pkg"

	"github.com/coocood/freecache"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const (
	FunctionsPath = "/functions/v1/"

	maxRequestBodyBytes = 1 << 20
	latestCacheSize     = 10 * 1024 * 1024
	latestCacheExpire   = 60 // seconds
)

var calculatorEndpoints = []string{
	calculators.EndpointBMR,
	calculators.EndpointTDEE,
	calculators.EndpointMacros,
	calculators.EndpointBMI,
	calculators.EndpointBodyComp,
}

// Handler serves the calculator and history functions.
type Handler struct {
	store Store
	// serialized latest responses per user, dropped on every write
	latestCache *freecache.Cache
	now         func() time.Time
	newID       func() string
}

func NewHandler(store Store) *Handler {
	return &Handler{
		store:       store,
		latestCache: freecache.NewCache(latestCacheSize),
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

func (h *Handler) SetupRoutes(r *mux.Router) {
	for _, endpoint := range calculatorEndpoints {
		r.HandleFunc(FunctionsPath+endpoint, h.calculatorHandler(endpoint)).Methods("POST", "OPTIONS").Name(endpoint)
	}
	r.HandleFunc(FunctionsPath+calculations.EndpointAll, h.HandleAll).Methods("POST", "OPTIONS").Name(calculations.EndpointAll)
	r.HandleFunc(FunctionsPath+calculations.EndpointLatest, h.HandleLatest).Methods("POST", "OPTIONS").Name(calculations.EndpointLatest)
	r.HandleFunc(FunctionsPath+calculations.EndpointByDate, h.HandleByDate).Methods("POST", "OPTIONS").Name(calculations.EndpointByDate)
	r.HandleFunc(FunctionsPath+calculations.EndpointByID, h.HandleByID).Methods("POST", "OPTIONS").Name(calculations.EndpointByID)
	r.HandleFunc(FunctionsPath+calculations.EndpointByType, h.HandleByType).Methods("POST", "OPTIONS").Name(calculations.EndpointByType)
	r.HandleFunc(FunctionsPath+calculations.EndpointDelete, h.HandleDelete).Methods("POST", "OPTIONS").Name(calculations.EndpointDelete)
}

type listResponse struct {
	Data []calculations.Calculation `json:"data"`
}

type latestResponse struct {
	Data calculations.Latest `json:"data"`
}

type pageResponse struct {
	Data       []calculations.Calculation `json:"data"`
	NextOffset *int                       `json:"nextOffset"`
}

func (h *Handler) calculatorHandler(endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracing.DevServerTracer.Start(r.Context(), "devserver.calculate")
		defer span.End()
		span.SetAttributes(attribute.String("endpoint", endpoint))

		req, userID, err := decodeCalculatorRequest(endpoint, r)
		if err != nil {
			writeError(w, endpoint, err)
			return
		}

		result, input, err := Compute(req)
		if err != nil {
			writeError(w, endpoint, err)
			return
		}

		calc := calculations.Calculation{
			ID:        h.newID(),
			UserID:    userID,
			Type:      req.CalculationType(),
			CreatedAt: h.now().UTC(),
			Result:    result,
			Input:     input,
		}
		if err := h.store.Add(ctx, calc); err != nil {
			writeError(w, endpoint, fmt.Errorf("store calculation: %w", err))
			return
		}
		h.forgetLatest(userID)

		log.Debugf("devserver: %s calculated for user %s [id: %s]", calc.Type, userID, calc.ID)
		pkg.WriteJSONResponse(w, http.StatusOK, result)
	}
}

func decodeCalculatorRequest(endpoint string, r *http.Request) (calculators.Request, string, error) {
	var (
		req    calculators.Request
		userID string
		err    error
	)
	switch endpoint {
	case calculators.EndpointBMR:
		var bmrReq calculators.BMRRequest
		err = decodeBody(r, &bmrReq)
		req, userID = bmrReq, bmrReq.UserID
	case calculators.EndpointTDEE:
		var tdeeReq calculators.TDEERequest
		err = decodeBody(r, &tdeeReq)
		req, userID = tdeeReq, tdeeReq.UserID
	case calculators.EndpointMacros:
		var macrosReq calculators.MacrosRequest
		err = decodeBody(r, &macrosReq)
		req, userID = macrosReq, macrosReq.UserID
	case calculators.EndpointBMI:
		var bmiReq calculators.BMIRequest
		err = decodeBody(r, &bmiReq)
		req, userID = bmiReq, bmiReq.UserID
	case calculators.EndpointBodyComp:
		var bodyCompReq calculators.BodyCompRequest
		err = decodeBody(r, &bodyCompReq)
		req, userID = bodyCompReq, bodyCompReq.UserID
	default:
		return nil, "", badRequest("unknown calculator %s", endpoint)
	}
	if err != nil {
		return nil, "", err
	}
	if strings.TrimSpace(userID) == "" {
		return nil, "", badRequest("userId required")
	}
	return req, userID, nil
}

func (h *Handler) HandleAll(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.DevServerTracer.Start(r.Context(), "devserver.all")
	defer span.End()

	var req calculations.AllRequest
	if err := decodeQuery(r, &req, &req.UserID); err != nil {
		writeError(w, calculations.EndpointAll, err)
		return
	}

	calcs, err := h.store.List(ctx, req.UserID)
	if err != nil {
		writeError(w, calculations.EndpointAll, err)
		return
	}
	pkg.WriteJSONResponse(w, http.StatusOK, listResponse{Data: calcs})
}

func (h *Handler) HandleLatest(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.DevServerTracer.Start(r.Context(), "devserver.latest")
	defer span.End()

	var req calculations.LatestRequest
	if err := decodeQuery(r, &req, &req.UserID); err != nil {
		writeError(w, calculations.EndpointLatest, err)
		return
	}

	cacheKey := latestCacheKey(req.UserID)
	if cached, err := h.latestCache.Get(cacheKey); err == nil {
		span.SetAttributes(attribute.Bool("cached", true))
		pkg.WriteResponseBytes(w, pkg.ContentType.JSON, cached, http.StatusOK)
		return
	}

	calcs, err := h.store.List(ctx, req.UserID)
	if err != nil {
		writeError(w, calculations.EndpointLatest, err)
		return
	}
	body, err := json.Marshal(latestResponse{Data: latestPerType(calcs)})
	if err != nil {
		writeError(w, calculations.EndpointLatest, err)
		return
	}
	if err := h.latestCache.Set(cacheKey, body, latestCacheExpire); err != nil {
		log.Warnf("devserver: cache latest for %s: %s", req.UserID, err)
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, body, http.StatusOK)
}

func (h *Handler) HandleByDate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.DevServerTracer.Start(r.Context(), "devserver.byDate")
	defer span.End()

	var req calculations.ByDateRequest
	if err := decodeQuery(r, &req, &req.UserID); err != nil {
		writeError(w, calculations.EndpointByDate, err)
		return
	}
	start, err := parseInstant("startDate", req.StartDate)
	if err != nil {
		writeError(w, calculations.EndpointByDate, err)
		return
	}
	end, err := parseInstant("endDate", req.EndDate)
	if err != nil {
		writeError(w, calculations.EndpointByDate, err)
		return
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		writeError(w, calculations.EndpointByDate, badRequest("endDate before startDate"))
		return
	}
	var calcType *calculations.Type
	if req.Type != nil {
		t, err := calculations.ParseType(string(*req.Type))
		if err != nil {
			writeError(w, calculations.EndpointByDate, badRequest("%s", err))
			return
		}
		calcType = &t
	}

	calcs, err := h.store.List(ctx, req.UserID)
	if err != nil {
		writeError(w, calculations.EndpointByDate, err)
		return
	}
	pkg.WriteJSONResponse(w, http.StatusOK, listResponse{Data: filterByDate(calcs, start, end, calcType)})
}

func (h *Handler) HandleByID(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.DevServerTracer.Start(r.Context(), "devserver.byId")
	defer span.End()

	var req calculations.ByIDRequest
	if err := decodeQuery(r, &req, &req.UserID); err != nil {
		writeError(w, calculations.EndpointByID, err)
		return
	}
	if len(req.IDs) == 0 {
		pkg.WriteJSONResponse(w, http.StatusOK, listResponse{Data: []calculations.Calculation{}})
		return
	}

	calcs, err := h.store.List(ctx, req.UserID)
	if err != nil {
		writeError(w, calculations.EndpointByID, err)
		return
	}
	pkg.WriteJSONResponse(w, http.StatusOK, listResponse{Data: filterByIDs(calcs, req.IDs)})
}

func (h *Handler) HandleByType(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.DevServerTracer.Start(r.Context(), "devserver.byType")
	defer span.End()

	var req calculations.ByTypeRequest
	if err := decodeQuery(r, &req, &req.UserID); err != nil {
		writeError(w, calculations.EndpointByType, err)
		return
	}
	calcType, err := calculations.ParseType(string(req.Type))
	if err != nil {
		writeError(w, calculations.EndpointByType, badRequest("%s", err))
		return
	}
	if req.Offset < 0 {
		writeError(w, calculations.EndpointByType, badRequest("offset must not be negative"))
		return
	}
	span.SetAttributes(
		attribute.String("type", string(calcType)),
		attribute.Int("offset", req.Offset),
	)

	calcs, err := h.store.List(ctx, req.UserID)
	if err != nil {
		writeError(w, calculations.EndpointByType, err)
		return
	}
	page, nextOffset := pageByType(calcs, calcType, normalizeLimit(req.Limit), req.Offset)
	pkg.WriteJSONResponse(w, http.StatusOK, pageResponse{Data: page, NextOffset: nextOffset})
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.DevServerTracer.Start(r.Context(), "devserver.delete")
	defer span.End()

	var req calculations.DeleteRequest
	if err := decodeQuery(r, &req, &req.UserID); err != nil {
		writeError(w, calculations.EndpointDelete, err)
		return
	}
	if len(req.IDs) == 0 {
		writeError(w, calculations.EndpointDelete, badRequest("ids required"))
		return
	}

	deleted, err := h.store.Delete(ctx, req.UserID, req.IDs)
	if err != nil {
		writeError(w, calculations.EndpointDelete, err)
		return
	}
	h.forgetLatest(req.UserID)

	log.Debugf("devserver: deleted %d/%d calculations of user %s", len(deleted), len(req.IDs), req.UserID)
	pkg.WriteJSONResponse(w, http.StatusOK, calculations.DeleteResponse{Deleted: deleted})
}

func (h *Handler) forgetLatest(userID string) {
	h.latestCache.Del(latestCacheKey(userID))
}

func latestCacheKey(userID string) []byte {
	return []byte("latest::" + userID)
}

func decodeBody(r *http.Request, out any) error {
	if r.Body == nil {
		return badRequest("request body required")
	}
	decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxRequestBodyBytes))
	if err := decoder.Decode(out); err != nil {
		return badRequest("invalid request body: %s", err)
	}
	return nil
}

func decodeQuery(r *http.Request, out any, userID *string) error {
	if err := decodeBody(r, out); err != nil {
		return err
	}
	if strings.TrimSpace(*userID) == "" {
		return badRequest("userId required")
	}
	return nil
}

func parseInstant(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, badRequest("%s must be an ISO-8601 instant", name)
	}
	return t, nil
}

func writeError(w http.ResponseWriter, endpoint string, err error) {
	var badReqErr *BadRequestError
	switch {
	case errors.As(err, &badReqErr):
		pkg.WriteJSONError(w, http.StatusBadRequest, badReqErr.Message)
	case errors.Is(err, context.Canceled):
		log.Debugf("devserver: %s canceled by client", endpoint)
		pkg.WriteJSONError(w, http.StatusRequestTimeout, "request canceled")
	default:
		log.Errorf("devserver: %s: %s", endpoint, err)
		pkg.WriteJSONError(w, http.StatusInternalServerError, "internal error")
	}
}
