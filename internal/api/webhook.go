package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"factoryMonitor/internal/model"
)

const maxPayloadBytes = 8 << 20

func (s *Server) receiveWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxPayloadBytes))
	if err != nil {
		s.logger.Error("read webhook body", zap.Error(err))
		respondInternalError(c)
		return
	}

	if s.cfg.SigningKey != "" && !verifySignature(s.cfg.SigningKey, body, c.GetHeader(signatureHeader)) {
		s.logger.Warn("webhook signature mismatch", zap.String("clientIP", c.ClientIP()))
		c.JSON(http.StatusUnauthorized, errorResponse{Error: "Invalid signature"})
		return
	}

	var payload model.WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		s.logger.Error("decode webhook payload", zap.Error(err))
		respondInternalError(c)
		return
	}

	summary, err := s.deps.Ingester.ProcessPayload(c.Request.Context(), payload)
	if err != nil {
		s.logger.Error("process webhook payload", zap.Error(err))
		respondInternalError(c)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) webhookInfo(c *gin.Context) {
	c.Header("Allow", "GET, POST")
	c.JSON(http.StatusOK, s.deps.Ingester.Info())
}
