package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/mirabelleagency/ChattersDashboard/internal/service"
	"github.com/mirabelleagency/ChattersDashboard/pkg/response"
)

// ImportHandler 批量导入 HTTP 处理器
type ImportHandler struct {
	importSvc service.ImportService
}

// NewImportHandler 创建 ImportHandler
func NewImportHandler(importSvc service.ImportService) *ImportHandler {
	return &ImportHandler{importSvc: importSvc}
}

// Upload 上传并导入业绩/班次表格
// POST /api/v1/import  (multipart/form-data, 字段名 file)
func (h *ImportHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, 10001, "缺少上传文件")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.BadRequest(c, 10001, "无法读取上传文件")
		return
	}
	defer file.Close()

	result, err := h.importSvc.ImportFile(c.Request.Context(), fileHeader.Filename, file, GetActor(c))
	if err != nil {
		h.handleImportError(c, err)
		return
	}

	response.OK(c, gin.H{
		"status":   "ok",
		"filename": fileHeader.Filename,
		"stats":    result,
	})
}

func (h *ImportHandler) handleImportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUnsupportedFileType),
		errors.Is(err, service.ErrMissingColumns),
		errors.Is(err, service.ErrSheetNotFound),
		errors.Is(err, service.ErrEmptyFile):
		response.BadRequest(c, 10001, err.Error())
	default:
		response.InternalError(c)
	}
}
