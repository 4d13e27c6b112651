package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/user/moviegraph/internal/service"
	"github.com/user/moviegraph/internal/utils"
)

// ExportCatalog POST /api/admin/export 把内存图重新写入数据库
func (h *Handler) ExportCatalog(c *gin.Context) {
	report, err := h.Export.Export(c.Request.Context())
	if err != nil {
		if errors.Is(err, service.ErrNotLoaded) {
			utils.ServiceUnavailable(c, err.Error())
			return
		}
		h.log.Error("[Admin] 导出失败", "subject", c.GetString("subject"), "error", err)
		utils.InternalServerError(c, "导出失败")
		return
	}
	h.log.Info("[Admin] 导出完成", "subject", c.GetString("subject"), "movies", report.Movies)
	utils.Success(c, report)
}
