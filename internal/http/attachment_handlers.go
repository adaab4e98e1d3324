package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"job-tracker/internal/service"
)

func (h *Handler) attachmentsEnabled(c *gin.Context) bool {
	if h.attachments == nil || !h.attachments.Enabled() {
		h.writeError(c, service.ErrStorageUnavailable)
		return false
	}
	return true
}

func (h *Handler) listAttachments(c *gin.Context) {
	id, ok := parseID(c)
	if !ok || !h.attachmentsEnabled(c) {
		return
	}
	attachments, err := h.attachments.List(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	resp := make([]AttachmentResponse, len(attachments))
	for i := range attachments {
		resp[i] = attachmentToResponse(attachments[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) uploadAttachment(c *gin.Context) {
	id, ok := parseID(c)
	if !ok || !h.attachmentsEnabled(c) {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.opts.MaxAttachmentBytes)
	header, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "multipart field \"file\" is required and must fit the upload limit")
		return
	}
	file, err := header.Open()
	if err != nil {
		badRequest(c, "cannot read uploaded file")
		return
	}
	defer file.Close()

	att, err := h.attachments.Upload(c.Request.Context(), id, header.Filename, file, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, attachmentToResponse(*att))
}

func (h *Handler) attachmentURL(c *gin.Context) {
	id, ok := parseID(c)
	if !ok || !h.attachmentsEnabled(c) {
		return
	}
	key := c.Query("key")
	if key == "" {
		badRequest(c, "query parameter key is required")
		return
	}
	url, err := h.attachments.URL(c.Request.Context(), id, key)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

func (h *Handler) deleteAttachment(c *gin.Context) {
	id, ok := parseID(c)
	if !ok || !h.attachmentsEnabled(c) {
		return
	}
	key := c.Query("key")
	if key == "" {
		badRequest(c, "query parameter key is required")
		return
	}
	if err := h.attachments.Delete(c.Request.Context(), id, key); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
