package http

import (
	"context"
	"encoding/json"
	"kiosk/internal/domain"
	"kiosk/internal/presenter"
	"kiosk/internal/usecase"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

type feedLoader interface {
	Execute(ctx context.Context, request domain.LoadFeedRequest, out usecase.LoadFeedOutput) <-chan struct{}
}

type itemsLister interface {
	ListItems(ctx context.Context, filter domain.ItemFilter) ([]domain.ArchivedItem, error)
}

type Handler struct {
	log          *slog.Logger
	loader       feedLoader
	items        itemsLister
	loc          *time.Location
	defaultLimit int
}

func NewHandler(log *slog.Logger, loader feedLoader, items itemsLister, loc *time.Location, defaultLimit int) *Handler {
	return &Handler{
		log:          log.With(slog.String("component", "http")),
		loader:       loader,
		items:        items,
		loc:          loc,
		defaultLimit: defaultLimit,
	}
}

// getFeed - хендлер для эндпоинта GET /api/feed?url=
// Загружает ленту и отдает данные презентера: 200 со списком каналов или 502 с сообщением.
func (h *Handler) getFeed(w http.ResponseWriter, r *http.Request) {
	const op = "transport.http/getFeed"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", requestIDFrom(r.Context())),
	)
	feedURL := r.URL.Query().Get("url")
	if !isFeedURL(feedURL) {
		log.Warn("invalid url parameter", slog.String("url", feedURL))
		respondWithError(w, http.StatusBadRequest, "Invalid 'url' parameter")
		return
	}

	var data presenter.ChannelsData
	p := presenter.NewChannelsPresenter(h.loc, func(d presenter.ChannelsData) { data = d })
	<-h.loader.Execute(r.Context(), domain.LoadFeedRequest{URL: feedURL}, p)

	if data == nil {
		log.Error("Feed load finished without outcome")
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	if _, failed := data.(presenter.MessageData); failed {
		respondWithJSON(w, http.StatusBadGateway, presenter.Wrap(data))
		return
	}
	respondWithJSON(w, http.StatusOK, presenter.Wrap(data))
}

// getItems - хендлер для эндпоинта GET /api/items?limit=&channel=
func (h *Handler) getItems(w http.ResponseWriter, r *http.Request) {
	const op = "transport.http/getItems"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", requestIDFrom(r.Context())),
	)
	limitStr := r.URL.Query().Get("limit")
	limit := h.defaultLimit
	if limitStr != "" {
		var err error
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit <= 0 {
			log.Warn("invalid limit parameter", slog.String("limit", limitStr))
			respondWithError(w, http.StatusBadRequest, "Invalid 'limit' parameter")
			return
		}
	}

	items, err := h.items.ListItems(r.Context(), domain.ItemFilter{
		Limit:       limit,
		ChannelLink: r.URL.Query().Get("channel"),
	})
	if err != nil {
		log.Error("Failed to list items", slog.Any("error", err))
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	if items == nil {
		items = []domain.ArchivedItem{}
	}
	respondWithJSON(w, http.StatusOK, items)
}

// healthCheck - хендлер для проверки состояния сервиса
func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func isFeedURL(raw string) bool {
	u, err := url.ParseRequestURI(raw)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// Вспомогательные функции для ответов
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
