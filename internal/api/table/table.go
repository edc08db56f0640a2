package table

import (
	"errors"
	"net/http"
	"strconv"

	dto "xbit_backend/internal/api/dto/table"
	"xbit_backend/internal/converter"
	"xbit_backend/internal/middleware"
	"xbit_backend/internal/model"
	"xbit_backend/internal/service"
	"xbit_backend/pkg/resp"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

type HandlerDeps struct {
	Serv  service.TableService
	Plays service.PlayService // для сети по умолчанию
	Log   *logrus.Entry
}

type Handler struct {
	serv  service.TableService
	plays service.PlayService
	log   *logrus.Entry
}

func NewHandler(deps HandlerDeps) *Handler {
	return &Handler{serv: deps.Serv, plays: deps.Plays, log: deps.Log}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	tables, err := h.serv.List(r.Context())
	if err != nil {
		h.log.WithError(err).Error("failed to list tables")
		resp.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]dto.TableResponse, len(tables))
	for i, t := range tables {
		out[i] = converter.ToTableResponse(t)
	}
	resp.WriteJSONResponse(w, http.StatusOK, out)
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	// Маршрут публичный: без сессии берется сеть по умолчанию
	session, _ := middleware.SessionFrom(r.Context())
	chainID := h.plays.SelectedNetwork(session.ID)
	if raw := r.URL.Query().Get("chain_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			resp.WriteError(w, http.StatusBadRequest, "invalid chain_id")
			return
		}
		chainID = id
	}

	stats, err := h.serv.Stats(r.Context(), chainID, chi.URLParam(r, "id"))
	switch {
	case err == nil:
	case errors.Is(err, model.ErrTableNotFound):
		resp.WriteError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, model.ErrUnknownNetwork):
		resp.WriteError(w, http.StatusBadRequest, err.Error())
		return
	default:
		h.log.WithError(err).Error("failed to compute table stats")
		resp.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp.WriteJSONResponse(w, http.StatusOK, converter.ToStatsResponse(*stats))
}
