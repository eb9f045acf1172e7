package public

import (
	"net/http"

	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/constants"

	"github.com/gin-gonic/gin"
)

// EpayNotify 易支付异步回调入口。
// 网关以表单参数回调，验签与对账在服务层完成，此处只负责按协议回写 ack 字符串。
func (h *Handler) EpayNotify(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		requestLog(c).Warnw("epay_notify_parse_failed", "error", err)
		c.String(http.StatusOK, constants.EpayCallbackFail)
		return
	}

	form := c.Request.Form
	ack, err := h.PaymentService.HandleEpayCallback(form)
	if err != nil {
		requestLog(c).Warnw("epay_notify_rejected",
			"trade_no", form.Get("trade_no"),
			"out_trade_no", form.Get("out_trade_no"),
			"trade_status", form.Get("trade_status"),
			"error", err,
		)
	} else {
		requestLog(c).Infow("epay_notify_handled",
			"trade_no", form.Get("trade_no"),
			"out_trade_no", form.Get("out_trade_no"),
			"trade_status", form.Get("trade_status"),
		)
	}

	c.String(http.StatusOK, ack)
}
