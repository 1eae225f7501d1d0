// Package submit реализует HTTP-обработчик загрузки KYC-документа.
//
// Документ принимается как multipart-форма с полем document, сохраняется
// на диск и переводит профиль в статус PENDING. Повторная отправка после
// успешной проверки запрещена.
package submit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/agent-panel/internal/http/middlewarectx"
	"github.com/magabrotheeeer/agent-panel/internal/http/response"
	"github.com/magabrotheeeer/agent-panel/internal/lib/sl"
	services "github.com/magabrotheeeer/agent-panel/internal/services/profile"
)

// Предел размера загружаемого документа.
const maxDocumentSize = 10 << 20

// Service описывает интерфейс бизнес-логики приёма KYC-документа.
type Service interface {
	SubmitDocument(ctx context.Context, userUID string, document io.Reader, ext string) (string, error)
}

// Handler управляет HTTP-запросами на загрузку KYC-документа.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Загрузить KYC-документ
// @Description Принимает документ (NID или паспорт) и ставит профиль в очередь на проверку.
// @Tags KYC
// @Accept  mpfd
// @Produce  json
// @Security BearerAuth
// @Param document formData file true "Файл документа"
// @Success 200 {object} map[string]any "Документ принят"
// @Failure 400 {object} response.ErrorResponse "Файл отсутствует или слишком большой"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 409 {object} response.ErrorResponse "Профиль уже проверен"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /kyc/document [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.kyc.submit"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	if err := r.ParseMultipartForm(maxDocumentSize); err != nil {
		log.Error("failed to parse multipart form", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid multipart form"))
		return
	}

	file, header, err := r.FormFile("document")
	if err != nil {
		log.Error("document file is missing", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("document file is required"))
		return
	}
	defer func() {
		if err := file.Close(); err != nil {
			log.Error("failed to close uploaded file", sl.Err(err))
		}
	}()
	log.Info("document received", slog.String("filename", header.Filename))

	documentRef, err := h.service.SubmitDocument(r.Context(), userUID, file, filepath.Ext(header.Filename))
	if err != nil {
		if errors.Is(err, services.ErrAlreadyVerified) {
			log.Info("document rejected: profile already verified")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("kyc already verified"))
			return
		}
		log.Error("failed to save document", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not save document"))
		return
	}

	log.Info("kyc document submitted", slog.String("document_ref", documentRef))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"document_ref": documentRef,
		"kyc_status":   "PENDING",
	}))
}
