package play

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	dto "xbit_backend/internal/api/dto/play"
	"xbit_backend/internal/converter"
	"xbit_backend/internal/middleware"
	"xbit_backend/internal/model"
	"xbit_backend/internal/service"
	"xbit_backend/internal/service/pacer"
	"xbit_backend/pkg/req"
	"xbit_backend/pkg/resp"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// Буфер подписки одного клиента
const streamBuffer = 64

type HandlerDeps struct {
	Serv    service.PlayService
	Tracker *pacer.Tracker
	Log     *logrus.Entry
}

type Handler struct {
	serv    service.PlayService
	tracker *pacer.Tracker
	log     *logrus.Entry
}

func NewHandler(deps HandlerDeps) *Handler {
	return &Handler{serv: deps.Serv, tracker: deps.Tracker, log: deps.Log}
}

func (h *Handler) phase(rec model.PlayRecord) pacer.Phase {
	if h.tracker == nil {
		if rec.Stage.IsTerminal() {
			return pacer.PhaseCompleted
		}
		return pacer.PhaseWaiting
	}
	return h.tracker.Phase(rec.ID)
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (model.Session, bool) {
	session, ok := middleware.SessionFrom(r.Context())
	if !ok {
		resp.WriteError(w, http.StatusUnauthorized, "no session")
	}
	return session, ok
}

// writeError Переводит ошибку сервиса в HTTP статус. Сырые ошибки транспорта наружу не отдаются.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrInvalidIntent):
		resp.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrTableNotFound), errors.Is(err, model.ErrPlayNotFound):
		resp.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, model.ErrNotTerminal):
		resp.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, model.ErrUnknownNetwork):
		resp.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		if kind, ok := model.KindOf(err); ok {
			h.log.WithError(err).WithField("kind", kind).Warn("request failed")
			resp.WriteError(w, http.StatusUnprocessableEntity, model.UserMessage(kind))
			return
		}
		h.log.WithError(err).Error("request failed")
		resp.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *Handler) toResponses(records []model.PlayRecord, wallet string) []dto.PlayResponse {
	out := make([]dto.PlayResponse, 0, len(records))
	for _, rec := range records {
		if !strings.EqualFold(rec.Owner, wallet) {
			continue
		}
		out = append(out, converter.ToPlayResponse(rec, h.phase(rec)))
	}
	return out
}

// Submit Проверяет allowance и запускает игру. Ответ приходит до подтверждения транзакции.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	payload, err := req.Decode[dto.SubmitRequest](r.Body)
	if err != nil {
		resp.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	intent, err := converter.ToPlayIntent(payload, session)
	if err != nil {
		h.writeError(w, err)
		return
	}

	rec, err := h.serv.Submit(r.Context(), intent)
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp.WriteJSONResponse(w, http.StatusAccepted, converter.ToPlayResponse(rec, h.phase(rec)))
}

// List Игры кошелька в сети chain_id (по умолчанию - выбранная сессией)
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	var chainID int64
	if raw := r.URL.Query().Get("chain_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			resp.WriteError(w, http.StatusBadRequest, "invalid chain_id")
			return
		}
		chainID = id
	}

	resp.WriteJSONResponse(w, http.StatusOK, h.toResponses(h.serv.ListActivePlays(session.ID, chainID), session.Wallet))
}

func (h *Handler) Dismiss(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := h.serv.Dismiss(session.Wallet, chi.URLParam(r, "key")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Reconcile Сверка с контрактом и восстановление незавершенных игр кошелька
func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	payload, err := req.Decode[dto.ReconcileRequest](r.Body)
	if err != nil {
		resp.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if payload.ChainID == 0 {
		payload.ChainID = h.serv.SelectedNetwork(session.ID)
	}

	records, err := h.serv.Reconcile(r.Context(), payload.ChainID, session.Wallet, session.ID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	resp.WriteJSONResponse(w, http.StatusOK, h.toResponses(records, session.Wallet))
}

func (h *Handler) Resume(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	payload, err := req.Decode[dto.ResumeRequest](r.Body)
	if err != nil {
		resp.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if payload.ChainID == 0 {
		payload.ChainID = h.serv.SelectedNetwork(session.ID)
	}

	records, err := h.serv.ResumePendingPlays(r.Context(), payload.ChainID, session.Wallet, session.ID, payload.PlayIDs)
	if err != nil {
		h.writeError(w, err)
		return
	}
	resp.WriteJSONResponse(w, http.StatusOK, h.toResponses(records, session.Wallet))
}

// AcknowledgeCongratulation Пользователь закрыл показанный результат
func (h *Handler) AcknowledgeCongratulation(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	h.serv.AcknowledgeCongratulation(session.ID)
	w.WriteHeader(http.StatusNoContent)
}

// Network Сеть, выбранная сессией
func (h *Handler) Network(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	resp.WriteJSONResponse(w, http.StatusOK, dto.NetworkResponse{ChainID: h.serv.SelectedNetwork(session.ID)})
}

func (h *Handler) SelectNetwork(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	payload, err := req.Decode[dto.NetworkRequest](r.Body)
	if err != nil {
		resp.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.serv.SelectNetwork(session.ID, payload.ChainID); err != nil {
		h.writeError(w, err)
		return
	}
	resp.WriteJSONResponse(w, http.StatusOK, dto.NetworkResponse{ChainID: payload.ChainID})
}

// Events Поток изменений игр кошелька в формате server-sent events.
// Поздравления уходят только в сессию, которая начала игру.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		resp.WriteError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	events, cancel := h.serv.Subscribe(streamBuffer)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, open := <-events:
			if !open {
				return
			}
			if !strings.EqualFold(ev.Record.Owner, session.Wallet) {
				continue
			}
			if ev.Type == model.EventCongratulation && ev.Record.SessionID != session.ID {
				continue
			}

			data, err := json.Marshal(converter.ToEventResponse(ev, h.phase(ev.Record)))
			if err != nil {
				h.log.WithError(err).Error("failed to encode play event")
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
