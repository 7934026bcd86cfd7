package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/Gunvolt24/courtdesk/internal/domain"
)

// CompanySettings — GET /company-settings.
func (c *Client) CompanySettings(ctx context.Context) (*domain.Settings, error) {
	req, err := jsonRequest(http.MethodGet, "/company-settings", nil)
	if err != nil {
		return nil, err
	}
	var out envelope[*domain.Settings]
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	if out.Data == nil {
		return nil, fmt.Errorf("GET /company-settings: response has no data")
	}
	return out.Data, nil
}

// UpdateCompanySettings — PUT /admin/company-settings (JSON) или
// POST /admin/company-settings с _method=PUT (multipart), если в обновлении есть файл.
func (c *Client) UpdateCompanySettings(ctx context.Context, upd *domain.SettingsUpdate) (*domain.Settings, error) {
	var (
		req request
		err error
	)
	if upd.HasFile() {
		req, err = multipartRequest(upd)
	} else {
		req, err = jsonRequest(http.MethodPut, "/admin/company-settings", upd)
	}
	if err != nil {
		return nil, err
	}

	var out envelope[*domain.Settings]
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// DeleteCompanyLogo — DELETE /admin/company-settings/logo.
func (c *Client) DeleteCompanyLogo(ctx context.Context) error {
	req, err := jsonRequest(http.MethodDelete, "/admin/company-settings/logo", nil)
	if err != nil {
		return err
	}
	return c.do(ctx, req, nil)
}

// DeletePaymentQRCode — DELETE /admin/company-settings/payment-qr-code.
func (c *Client) DeletePaymentQRCode(ctx context.Context) error {
	req, err := jsonRequest(http.MethodDelete, "/admin/company-settings/payment-qr-code", nil)
	if err != nil {
		return err
	}
	return c.do(ctx, req, nil)
}

func multipartRequest(upd *domain.SettingsUpdate) (request, error) {
	fields, err := upd.FormFields()
	if err != nil {
		return request{}, fmt.Errorf("encode settings form: %w", err)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return request{}, err
		}
	}
	if err := writeFile(w, "company_logo", upd.Logo); err != nil {
		return request{}, err
	}
	if err := writeFile(w, "payment_qr_code", upd.PaymentQRCode); err != nil {
		return request{}, err
	}
	if err := w.Close(); err != nil {
		return request{}, err
	}

	return request{
		method:      http.MethodPost,
		path:        "/admin/company-settings",
		body:        &buf,
		contentType: w.FormDataContentType(),
	}, nil
}

func writeFile(w *multipart.Writer, field string, up *domain.Upload) error {
	if up == nil {
		return nil
	}
	name := up.Filename
	if name == "" {
		name = field
	}
	part, err := w.CreateFormFile(field, name)
	if err != nil {
		return err
	}
	_, err = part.Write(up.Data)
	return err
}
