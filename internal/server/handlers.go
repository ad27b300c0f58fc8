package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/swiftscan/constants"
	"github.com/joseph-ayodele/swiftscan/internal/common"
	"github.com/joseph-ayodele/swiftscan/internal/entity"
	"github.com/joseph-ayodele/swiftscan/internal/pipeline"
	"github.com/joseph-ayodele/swiftscan/internal/repository"
	"github.com/joseph-ayodele/swiftscan/internal/session"
)

// maxImageBytes bounds a capture upload; data URIs are ~4/3 the image size.
const maxImageBytes = 16 << 20

func (a *API) parse(c *gin.Context) {
	var req struct {
		Text string `json:"text"`
	}
	if !a.bind(c, &req) {
		return
	}
	contact, err := a.deps.Fields.ExtractFields(c.Request.Context(), req.Text)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, contact)
}

// --- sessions

func (a *API) createSession(c *gin.Context) {
	s, err := a.deps.Settings.Get(c.Request.Context())
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, a.deps.Sessions.Create(s.NeedsOnboarding()))
}

func (a *API) getSession(c *gin.Context) {
	id, ok := a.idParam(c)
	if !ok {
		return
	}
	s, err := a.deps.Sessions.Get(id)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (a *API) navigate(c *gin.Context) {
	id, ok := a.idParam(c)
	if !ok {
		return
	}
	var req struct {
		View     string     `json:"view"`
		RecordID *uuid.UUID `json:"recordId"`
	}
	if !a.bind(c, &req) {
		return
	}
	view, ok := session.ParseView(req.View)
	if !ok {
		a.writeError(c, common.InvalidInputErrorf("unknown view %q", req.View))
		return
	}
	if view == session.ViewHistoryDetail && req.RecordID != nil {
		// the record must exist before the detail view opens
		if _, err := a.deps.Scans.Get(c.Request.Context(), *req.RecordID); err != nil {
			a.writeError(c, err)
			return
		}
	}
	s, err := a.deps.Sessions.Navigate(id, view, req.RecordID)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (a *API) capture(c *gin.Context) {
	id, ok := a.idParam(c)
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImageBytes)
	var req struct {
		Image string `json:"image"`
	}
	if !a.bind(c, &req) {
		return
	}
	if req.Image == "" {
		a.writeError(c, common.InvalidInputErrorf("image is required"))
		return
	}
	res, err := a.deps.Processor.Capture(c.Request.Context(), id, req.Image)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (a *API) regenerate(c *gin.Context) {
	id, ok := a.idParam(c)
	if !ok {
		return
	}
	s, err := a.deps.Processor.Regenerate(c.Request.Context(), id)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (a *API) send(c *gin.Context) {
	id, ok := a.idParam(c)
	if !ok {
		return
	}
	var req struct {
		Method  string         `json:"method"`
		Contact entity.Contact `json:"contact"`
		Draft   entity.Draft   `json:"draft"`
	}
	if !a.bind(c, &req) {
		return
	}
	method, ok := constants.ParseStatus(req.Method)
	if !ok || !method.IsSent() {
		a.writeError(c, common.InvalidInputErrorf("method must be %s or %s", constants.ScanStatusSentManual, constants.ScanStatusSentGmail))
		return
	}
	out, err := a.deps.Processor.Send(c.Request.Context(), id, pipeline.SendRequest{
		Method:  method,
		Contact: req.Contact,
		Draft:   req.Draft,
	})
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// --- history

func (a *API) listHistory(c *gin.Context) {
	limit, ok := a.limitQuery(c)
	if !ok {
		return
	}
	recs, err := a.deps.Scans.List(c.Request.Context(), limit)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": recs})
}

func (a *API) getHistory(c *gin.Context) {
	id, ok := a.idParam(c)
	if !ok {
		return
	}
	rec, err := a.deps.Scans.Get(c.Request.Context(), id)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (a *API) deleteHistory(c *gin.Context) {
	id, ok := a.idParam(c)
	if !ok {
		return
	}
	if err := a.deps.Scans.Delete(c.Request.Context(), id); err != nil {
		a.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) exportHistory(c *gin.Context) {
	limit, ok := a.limitQuery(c)
	if !ok {
		return
	}
	buf, err := a.deps.Export.ExportHistoryXLSX(c.Request.Context(), limit)
	if err != nil {
		a.writeError(c, err)
		return
	}
	name := fmt.Sprintf("swiftscan-history-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf)
}

func (a *API) limitQuery(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return repository.DefaultListLimit, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 || n > 1000 {
		a.writeError(c, common.InvalidInputErrorf("limit must be between 1 and 1000"))
		return 0, false
	}
	return n, true
}

// --- settings

func (a *API) getSettings(c *gin.Context) {
	s, err := a.deps.Settings.Get(c.Request.Context())
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (a *API) putSettings(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		a.writeError(c, common.InvalidInputErrorf("read body: %v", err))
		return
	}
	if err := repository.ValidateSettingsJSON(raw); err != nil {
		a.writeError(c, err)
		return
	}
	var s entity.Settings
	if err := json.Unmarshal(raw, &s); err != nil {
		a.writeError(c, common.InvalidInputErrorf("invalid settings: %v", err))
		return
	}
	if err := a.deps.Settings.Save(c.Request.Context(), s); err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// signIn links a Google account using an access token obtained by the client.
func (a *API) signIn(c *gin.Context) {
	var req struct {
		AccessToken string `json:"accessToken"`
	}
	if !a.bind(c, &req) {
		return
	}
	if a.deps.Google == nil {
		a.writeError(c, fmt.Errorf("google sign-in is not configured"))
		return
	}
	ctx := c.Request.Context()
	user, err := a.deps.Google.UserInfo(ctx, req.AccessToken)
	if err != nil {
		a.writeError(c, err)
		return
	}
	s, err := a.deps.Settings.Get(ctx)
	if err != nil {
		a.writeError(c, err)
		return
	}
	s.SignIn(user)
	if err := a.deps.Settings.Save(ctx, s); err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (a *API) signOut(c *gin.Context) {
	ctx := c.Request.Context()
	s, err := a.deps.Settings.Get(ctx)
	if err != nil {
		a.writeError(c, err)
		return
	}
	s.SignOut()
	if err := a.deps.Settings.Save(ctx, s); err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}
