package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"factoryMonitor/internal/candles"
	"factoryMonitor/internal/quote"
	"factoryMonitor/internal/storage"
	"factoryMonitor/internal/units"
)

const (
	defaultTradeLimit = 50
	maxTradeLimit     = 500
	defaultWindow     = "5m"
	defaultCandles    = 100
)

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// addressParam returns the lowercase :address path parameter, or responds 400.
func addressParam(c *gin.Context) (string, bool) {
	raw := c.Param("address")
	if !common.IsHexAddress(raw) {
		respondBadRequest(c, "invalid address")
		return "", false
	}
	return strings.ToLower(raw), true
}

func (s *Server) getToken(c *gin.Context) {
	address, ok := addressParam(c)
	if !ok {
		return
	}
	token, err := s.deps.Store.GetToken(c.Request.Context(), address)
	if errors.Is(err, storage.ErrNotFound) {
		respondNotFound(c, "token not found")
		return
	}
	if err != nil {
		s.logger.Error("get token", zap.String("token", address), zap.Error(err))
		respondInternalError(c)
		return
	}
	c.JSON(http.StatusOK, token)
}

func (s *Server) listTrades(c *gin.Context) {
	address, ok := addressParam(c)
	if !ok {
		return
	}
	limit, err := intQuery(c, "limit", defaultTradeLimit)
	if err != nil || limit <= 0 {
		respondBadRequest(c, "invalid limit")
		return
	}
	if limit > maxTradeLimit {
		limit = maxTradeLimit
	}

	trades, err := s.deps.Store.ListTrades(c.Request.Context(), address, limit)
	if err != nil {
		s.logger.Error("list trades", zap.String("token", address), zap.Error(err))
		respondInternalError(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": address, "trades": trades})
}

func (s *Server) getCandles(c *gin.Context) {
	if s.deps.Candles == nil {
		respondUnavailable(c, "candles are not enabled")
		return
	}
	address, ok := addressParam(c)
	if !ok {
		return
	}
	label := c.DefaultQuery("window", defaultWindow)
	window, err := candles.ParseWindow(label)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	count, err := intQuery(c, "count", defaultCandles)
	if err != nil || count <= 0 {
		respondBadRequest(c, "invalid count")
		return
	}

	out, err := s.deps.Candles.Candles(c.Request.Context(), address, window, count)
	if err != nil {
		s.logger.Error("build candles", zap.String("token", address), zap.Error(err))
		respondInternalError(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": address, "window": label, "candles": out})
}

func (s *Server) getUser(c *gin.Context) {
	address, ok := addressParam(c)
	if !ok {
		return
	}
	user, err := s.deps.Store.GetUser(c.Request.Context(), address)
	if errors.Is(err, storage.ErrNotFound) {
		respondNotFound(c, "user not found")
		return
	}
	if err != nil {
		s.logger.Error("get user", zap.String("user", address), zap.Error(err))
		respondInternalError(c)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) getQuote(c *gin.Context) {
	if s.deps.Quotes == nil {
		respondUnavailable(c, "quotes are not enabled")
		return
	}
	address, ok := addressParam(c)
	if !ok {
		return
	}
	side, err := quote.ParseSide(strings.ToLower(c.DefaultQuery("side", string(quote.SideBuy))))
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	amount := c.Query("amount")
	if _, err := units.ParseEther(amount); err != nil {
		respondBadRequest(c, "invalid amount")
		return
	}

	q, err := s.deps.Quotes.Quote(c.Request.Context(), common.HexToAddress(address), side, amount)
	if err != nil {
		s.logger.Warn("quote failed", zap.String("token", address), zap.Error(err))
		c.JSON(http.StatusBadGateway, errorResponse{Error: "contract read failed"})
		return
	}
	c.JSON(http.StatusOK, q)
}

func intQuery(c *gin.Context, key string, fallback int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
