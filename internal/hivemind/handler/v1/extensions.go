package v1

import (
	"errors"
	"io"
	"slices"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/domain/entity"
	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/domain/repo"
	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/domain/service"
	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/hooks"
	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/pkg/errno"
	"github.com/kiosk404/nubabel/internal/pkg/core"
	"github.com/kiosk404/nubabel/pkg/errorx"
	"github.com/kiosk404/nubabel/pkg/logger"
)

// ExtensionHandler serves the extension admin API.
type ExtensionHandler struct {
	svc    service.LoaderService
	events *hooks.Broker
	skills repo.ExtensionRegistry
	agents repo.AgentRegistry
	org    string
}

// NewExtensionHandler creates a new ExtensionHandler. events, skills and
// agents may be nil; the matching endpoints then answer with an error.
func NewExtensionHandler(
	svc service.LoaderService,
	events *hooks.Broker,
	skills repo.ExtensionRegistry,
	agents repo.AgentRegistry,
	org string,
) *ExtensionHandler {
	return &ExtensionHandler{svc: svc, events: events, skills: skills, agents: agents, org: org}
}

// RegisterRoutes installs the admin endpoints on g (usually the /v1 group).
// Scoped ids must be path-escaped ("%40acme%2Fweather"); the engine needs
// UseRawPath for them to reach :id in one piece.
func (h *ExtensionHandler) RegisterRoutes(g gin.IRouter) {
	g.GET("/extensions", h.List)
	g.POST("/extensions", h.Load)
	g.POST("/extensions/scan", h.Scan)
	g.GET("/extensions/:id", h.Get)
	g.DELETE("/extensions/:id", h.Unload)
	g.POST("/extensions/:id/reload", h.Reload)
	g.POST("/extensions/:id/events", h.Emit)
	g.GET("/events", h.Stream)
	g.GET("/skills", h.ListSkills)
	g.GET("/agents", h.ListAgents)
}

// List handles GET /v1/extensions.
func (h *ExtensionHandler) List(c *gin.Context) {
	exts := h.svc.GetLoadedExtensions()
	resp := make([]ExtensionSummary, 0, len(exts))
	for _, ext := range exts {
		resp = append(resp, toExtensionSummary(ext))
	}
	core.WriteResponse(c, nil, gin.H{"data": resp})
}

// Get handles GET /v1/extensions/:id.
func (h *ExtensionHandler) Get(c *gin.Context) {
	id := c.Param("id")
	ext, ok := h.svc.GetExtension(id)
	if !ok {
		core.WriteResponse(c, errorx.WithCode(ErrExtensionNotFound, "extension %q not found", id), nil)
		return
	}
	core.WriteResponse(c, nil, toExtensionResponse(ext))
}

// Load handles POST /v1/extensions.
func (h *ExtensionHandler) Load(c *gin.Context) {
	var req LoadExtensionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		core.WriteResponse(c, errorx.WrapC(err, ErrBind, "bind load request"), nil)
		return
	}
	if (req.Path == "") == (req.Package == "") {
		core.WriteResponse(c, errorx.WithCode(ErrValidation, "exactly one of path and package is required"), nil)
		return
	}

	var res *entity.LoadResult
	if req.Package != "" {
		res = h.svc.LoadFromPackage(c.Request.Context(), req.Package)
	} else {
		res = h.svc.LoadFromDirectory(c.Request.Context(), req.Path)
	}
	h.writeLoadResult(c, ErrExtensionLoad, res)
}

// Scan handles POST /v1/extensions/scan: every subdirectory of dir is loaded.
func (h *ExtensionHandler) Scan(c *gin.Context) {
	var req ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		core.WriteResponse(c, errorx.WrapC(err, ErrBind, "bind scan request"), nil)
		return
	}
	res := h.svc.LoadAllFromDirectory(c.Request.Context(), req.Dir)
	if r, ok := res.Results[req.Dir]; ok && !r.Success {
		core.WriteDetailedError(c, ErrExtensionScan, r.Errors, r.Warnings)
		return
	}
	core.WriteResponse(c, nil, toScanResponse(res))
}

// Unload handles DELETE /v1/extensions/:id.
func (h *ExtensionHandler) Unload(c *gin.Context) {
	id := c.Param("id")
	if _, ok := h.svc.GetExtension(id); !ok {
		core.WriteResponse(c, errorx.WithCode(ErrExtensionNotFound, "extension %q not found", id), nil)
		return
	}
	res := h.svc.Unload(c.Request.Context(), id)
	if !res.Success {
		core.WriteDetailedError(c, ErrExtensionUnload, res.Errors, nil)
		return
	}
	core.WriteResponse(c, nil, gin.H{"id": id, "unloaded": true})
}

// Reload handles POST /v1/extensions/:id/reload.
func (h *ExtensionHandler) Reload(c *gin.Context) {
	id := c.Param("id")
	if _, ok := h.svc.GetExtension(id); !ok {
		core.WriteResponse(c, errorx.WithCode(ErrExtensionNotFound, "extension %q not found", id), nil)
		return
	}
	h.writeLoadResult(c, ErrExtensionReload, h.svc.Reload(c.Request.Context(), id))
}

// Emit handles POST /v1/extensions/:id/events.
func (h *ExtensionHandler) Emit(c *gin.Context) {
	id := c.Param("id")
	var req EmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		core.WriteResponse(c, errorx.WrapC(err, ErrBind, "bind emit request"), nil)
		return
	}
	event := hooks.Event(req.Event)
	if !slices.Contains(hooks.Events, event) {
		core.WriteResponse(c, errorx.WithCode(ErrUnknownEvent, "unknown event %q", req.Event), nil)
		return
	}
	if err := h.svc.Emit(c.Request.Context(), id, event, req.Data); err != nil {
		code := ErrEmit
		if errors.Is(err, errno.ErrExtensionNotFound) {
			code = ErrExtensionNotFound
		}
		core.WriteResponse(c, errorx.WrapC(err, code, "emit %s to %q", event, id), nil)
		return
	}
	core.WriteResponse(c, nil, gin.H{"id": id, "event": event, "emitted": true})
}

// Stream handles GET /v1/events: lifecycle events as server-sent events,
// optionally filtered with ?extension=<id>.
func (h *ExtensionHandler) Stream(c *gin.Context) {
	if h.events == nil {
		core.WriteResponse(c, errorx.WithCode(ErrStreamClosed, "event stream is not enabled"), nil)
		return
	}
	filter := c.Query("extension")
	subID, ch, cancel := h.events.Subscribe()
	defer cancel()
	logger.Debug("[ExtensionAPI] event stream %s opened (filter=%q)", subID, filter)

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Render(-1, sse.Event{Event: "ready", Data: gin.H{"subscriber": subID}})
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			if filter != "" && ev.ExtensionID != filter {
				return true
			}
			c.Render(-1, sse.Event{Id: ev.DispatchID, Event: string(ev.Event), Data: ev})
			return true
		}
	})
	logger.Debug("[ExtensionAPI] event stream %s closed", subID)
}

// ListSkills handles GET /v1/skills?org=<scope>.
func (h *ExtensionHandler) ListSkills(c *gin.Context) {
	if h.skills == nil {
		core.WriteResponse(c, nil, gin.H{"data": []*entity.SkillDescriptor{}})
		return
	}
	org := c.DefaultQuery("org", h.org)
	skills, err := h.skills.ListSkills(c.Request.Context(), org)
	if err != nil {
		core.WriteResponse(c, errorx.WrapC(err, ErrSkillList, "list skills in %q", org), nil)
		return
	}
	if skills == nil {
		skills = []*entity.SkillDescriptor{}
	}
	core.WriteResponse(c, nil, gin.H{"data": skills})
}

// ListAgents handles GET /v1/agents?org=<scope>.
func (h *ExtensionHandler) ListAgents(c *gin.Context) {
	if h.agents == nil {
		core.WriteResponse(c, nil, gin.H{"data": []*entity.AgentDescriptor{}})
		return
	}
	org := c.DefaultQuery("org", h.org)
	agents, err := h.agents.ListAgents(c.Request.Context(), org)
	if err != nil {
		core.WriteResponse(c, errorx.WrapC(err, ErrAgentList, "list agents in %q", org), nil)
		return
	}
	if agents == nil {
		agents = []*entity.AgentDescriptor{}
	}
	core.WriteResponse(c, nil, gin.H{"data": agents})
}

func (h *ExtensionHandler) writeLoadResult(c *gin.Context, code int, res *entity.LoadResult) {
	if !res.Success {
		core.WriteDetailedError(c, code, res.Errors, res.Warnings)
		return
	}
	core.WriteResponse(c, nil, LoadResponse{
		Extension: toExtensionResponse(res.Extension),
		Warnings:  res.Warnings,
	})
}
