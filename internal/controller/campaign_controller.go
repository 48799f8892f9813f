// internal/controller/campaign_controller.go
package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	appErrors "github.com/unclebandit/campaign-directory/internal/errors"
	"github.com/unclebandit/campaign-directory/internal/model"
	"github.com/unclebandit/campaign-directory/internal/service"
)

const maxBodyBytes = 1 << 20

type CampaignController struct {
	CampaignService service.CampaignServicer
	Log             *zap.Logger
}

func NewCampaignController(svc service.CampaignServicer, log *zap.Logger) *CampaignController {
	return &CampaignController{CampaignService: svc, Log: log}
}

func (c *CampaignController) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	campaigns, err := c.CampaignService.ListCampaigns(r.Context())
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	Data(w, c.Log, http.StatusOK, campaigns)
}

func (c *CampaignController) GetCampaign(w http.ResponseWriter, r *http.Request) {
	id, ok := c.campaignID(w, r)
	if !ok {
		return
	}
	campaign, err := c.CampaignService.GetCampaign(r.Context(), id)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	Data(w, c.Log, http.StatusOK, campaign)
}

func (c *CampaignController) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var body model.CampaignInput
	if !c.decode(w, r, &body) {
		return
	}
	campaign, err := c.CampaignService.CreateCampaign(r.Context(), body)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("%s/%d", strings.TrimSuffix(r.URL.Path, "/"), campaign.ID))
	Data(w, c.Log, http.StatusCreated, campaign)
}

func (c *CampaignController) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	id, ok := c.campaignID(w, r)
	if !ok {
		return
	}
	var body model.CampaignInput
	if !c.decode(w, r, &body) {
		return
	}
	campaign, err := c.CampaignService.UpdateCampaign(r.Context(), id, body)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	Data(w, c.Log, http.StatusOK, campaign)
}

func (c *CampaignController) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
	id, ok := c.campaignID(w, r)
	if !ok {
		return
	}
	if err := c.CampaignService.DeleteCampaign(r.Context(), id); err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *CampaignController) campaignID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		Error(w, c.Log, http.StatusBadRequest, codeValidation, "invalid campaign id")
		return 0, false
	}
	return id, true
}

func (c *CampaignController) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		msg := "invalid request body: " + err.Error()
		if errors.Is(err, io.EOF) {
			msg = "request body is required"
		}
		c.Log.Warn("Invalid campaign request", zap.String("path", r.URL.Path), zap.Error(err))
		Error(w, c.Log, http.StatusBadRequest, codeValidation, msg)
		return false
	}
	if dec.More() {
		Error(w, c.Log, http.StatusBadRequest, codeValidation, "invalid request body: unexpected trailing data")
		return false
	}
	return true
}

func (c *CampaignController) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case appErrors.IsInvalid(err):
		Error(w, c.Log, http.StatusBadRequest, codeValidation, err.Error())
	case appErrors.IsNotFound(err):
		Error(w, c.Log, http.StatusNotFound, codeNotFound, err.Error())
	case appErrors.IsConflict(err):
		Error(w, c.Log, http.StatusConflict, codeConflict, err.Error())
	default:
		c.Log.Error("Campaign request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		Error(w, c.Log, http.StatusInternalServerError, codeInternal, "internal server error")
	}
}
