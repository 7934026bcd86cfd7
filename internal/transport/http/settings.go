package rest

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Gunvolt24/courtdesk/internal/domain"
	"github.com/Gunvolt24/courtdesk/internal/usecase"
	"github.com/Gunvolt24/courtdesk/pkg/validate"
)

// Поля multipart-формы.
const (
	formSettings = "settings" // JSON частичного обновления
	formLogo     = "company_logo"
	formQRCode   = "payment_qr_code"
)

func (h *Handler) getSettings(c *gin.Context) {
	snap, err := h.settings.GetSettings(c.Request.Context(), c.Query("fresh") != "true")
	if err != nil {
		h.writeError(c, "get settings", err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// updateSettings — JSON-тело либо multipart: поле "settings" с JSON и файлы
// company_logo / payment_qr_code.
func (h *Handler) updateSettings(c *gin.Context) {
	var (
		raw []byte
		err error
	)
	multipart := isMultipart(c)
	if multipart {
		raw = []byte(c.PostForm(formSettings))
		if len(raw) == 0 {
			raw = []byte("{}")
		}
	} else if raw, err = io.ReadAll(c.Request.Body); err != nil {
		badRequest(c, err)
		return
	}

	upd, err := validate.SettingsUpdateFromJSON(raw)
	if err != nil {
		h.writeUpdateInputError(c, err)
		return
	}
	if multipart {
		if upd.Logo, err = formUpload(c, formLogo); err != nil {
			badRequest(c, err)
			return
		}
		if upd.PaymentQRCode, err = formUpload(c, formQRCode); err != nil {
			badRequest(c, err)
			return
		}
	}

	res, err := h.settings.UpdateSettings(c.Request.Context(), upd)
	if err != nil {
		h.writeError(c, "update settings", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) deleteLogo(c *gin.Context) {
	if err := h.settings.DeleteLogo(c.Request.Context()); err != nil {
		h.writeError(c, "delete logo", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) getPayment(c *gin.Context) {
	ps, err := h.payment.Get(c.Request.Context(), c.Query("fresh") != "true")
	if err != nil {
		h.writeError(c, "get payment settings", err)
		return
	}
	c.JSON(http.StatusOK, ps)
}

// updatePayment — JSON PaymentUpdate либо multipart с теми же полями и файлом payment_qr_code.
func (h *Handler) updatePayment(c *gin.Context) {
	ctx := c.Request.Context()

	if !isMultipart(c) {
		var data usecase.PaymentUpdate
		if err := c.ShouldBindJSON(&data); err != nil {
			badRequest(c, err)
			return
		}
		res, err := h.payment.Update(ctx, data)
		if err != nil {
			h.writeError(c, "update payment settings", err)
			return
		}
		c.JSON(http.StatusOK, res)
		return
	}

	data := usecase.PaymentUpdate{
		PaymentGcashNumber:  c.PostForm("payment_gcash_number"),
		PaymentGcashName:    c.PostForm("payment_gcash_name"),
		PaymentInstructions: c.PostForm("payment_instructions"),
	}
	qr, err := formUpload(c, formQRCode)
	if err != nil {
		badRequest(c, err)
		return
	}
	current, err := h.payment.Get(ctx, false)
	if err != nil {
		h.writeError(c, "update payment settings", err)
		return
	}
	res, err := h.payment.UpdateWithQRCode(ctx, current.CompanyName, data, qr)
	if err != nil {
		h.writeError(c, "update payment settings", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) deletePaymentQR(c *gin.Context) {
	if err := h.payment.DeleteQRCode(c.Request.Context()); err != nil {
		h.writeError(c, "delete payment qr code", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ------вспомогательные функции------

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

// formUpload — файл из multipart-формы; nil, если поля нет.
// Файлы больше MaxUploadSize читаются не целиком: проверку размера выполняет validate.
func formUpload(c *gin.Context, field string) (*domain.Upload, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, validate.MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return &domain.Upload{Filename: fh.Filename, Data: data}, nil
}

// writeUpdateInputError — ошибки разбора JSON — 400, ошибки валидации — 422.
func (h *Handler) writeUpdateInputError(c *gin.Context, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		h.writeError(c, "update settings", verr)
		return
	}
	badRequest(c, err)
}
