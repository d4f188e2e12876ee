package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/danmuck/hashdragon/internal/anchor"
	"github.com/danmuck/hashdragon/internal/events"
	"github.com/danmuck/hashdragon/internal/observability"
	"github.com/danmuck/hashdragon/internal/protocol"
	"github.com/danmuck/hashdragon/internal/protocol/field"
	"github.com/danmuck/hashdragon/internal/traits"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type encodeRequest struct {
	Event       string         `json:"event"`
	Hashdragon  *protocol.Hash `json:"hashdragon"`
	Cost        uint64         `json:"cost"`
	InputIndex  *uint32        `json:"input_index"`
	OutputIndex *uint32        `json:"output_index"`
	TxnRef      string         `json:"txn_ref"`
	RescueRef   *protocol.Hash `json:"rescue_ref"`
	Order       string         `json:"order"`
	Mode        string         `json:"mode"`
}

type encodeResponse struct {
	Output string           `json:"output"`
	Script string           `json:"script"`
	Order  string           `json:"order"`
	Record protocol.Summary `json:"record"`
	Anchor *anchorResponse  `json:"anchor,omitempty"`
}

type decodeRequest struct {
	Script    string `json:"script"`
	BigEndian bool   `json:"big_endian"`
}

type anchorResponse struct {
	TxID        string            `json:"txid"`
	OutputIndex uint32            `json:"output_index"`
	Breeding    bool              `json:"breeding"`
	Order       string            `json:"order"`
	Record      *protocol.Summary `json:"record,omitempty"`
}

type transactionRequest struct {
	Event       string         `json:"event"`
	Hashdragon  *protocol.Hash `json:"hashdragon"`
	TxnRef      string         `json:"txn_ref"`
	CoinRef     string         `json:"coin_ref"`
	RescueRef   *protocol.Hash `json:"rescue_ref"`
	Destination string         `json:"destination"`
	Change      string         `json:"change"`
	InputIndex  *uint32        `json:"input_index"`
	OutputIndex *uint32        `json:"output_index"`
	Order       string         `json:"order"`
	Payment     *uint64        `json:"payment"`
}

type transactionResponse struct {
	TxID          string           `json:"txid"`
	Hex           string           `json:"hex"`
	Fee           uint64           `json:"fee"`
	Change        uint64           `json:"change"`
	EstimatedSize int              `json:"estimated_size"`
	Record        protocol.Summary `json:"record"`
}

func (s *Server) registerRoutes() {
	r := s.router
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.appeared).String(),
			"service": "hashdragon",
			"version": Version,
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/events/encode", s.handleEncode)
	r.POST("/events/decode", s.handleDecode)
	r.GET("/anchors/:txid", s.handleAnchor)
	r.GET("/traits/:hashdragon", s.handleTraits)
	r.POST("/transactions", s.handleTransaction)
}

func (s *Server) handleEncode(c *gin.Context) {
	var body encodeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		abortWithError(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	event, err := protocol.ParseEvent(body.Event)
	if err != nil {
		abortWithError(c, err)
		return
	}
	observability.SetEvent(c, event.String())
	mode, err := protocol.ParseMode(body.Mode)
	if err != nil {
		abortWithError(c, err)
		return
	}
	order, err := optionalOrder(body.Order)
	if err != nil {
		abortWithError(c, err)
		return
	}

	res, err := s.svc.CreateEvent(c.Request.Context(), events.EventRequest{
		Event:       event,
		Hashdragon:  body.Hashdragon,
		Cost:        body.Cost,
		InputIndex:  body.InputIndex,
		OutputIndex: body.OutputIndex,
		TxnRef:      strings.TrimSpace(body.TxnRef),
		RescueRef:   body.RescueRef,
		Order:       order,
		Mode:        mode,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	out := encodeResponse{
		Output: res.Output,
		Script: fmt.Sprintf("%x", res.Script),
		Order:  res.Order.String(),
		Record: protocol.Summarize(res.Record),
	}
	if res.Anchor != nil {
		a := toAnchorResponse(*res.Anchor)
		out.Anchor = &a
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleDecode(c *gin.Context) {
	var body decodeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		abortWithError(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	rec, err := s.svc.DecodeScript(body.Script, protocol.OrderFor(body.BigEndian))
	if err != nil {
		abortWithError(c, err)
		return
	}
	observability.SetEvent(c, rec.Event().String())
	c.JSON(http.StatusOK, protocol.Summarize(rec))
}

func (s *Server) handleAnchor(c *gin.Context) {
	var claimed *protocol.Hash
	if raw := c.Query("hashdragon"); raw != "" {
		h, err := protocol.ParseHash(raw)
		if err != nil {
			abortWithError(c, err)
			return
		}
		claimed = &h
	}
	a, err := s.svc.DecodeAnchor(c.Request.Context(), c.Param("txid"), claimed)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if a.Record != nil {
		observability.SetEvent(c, a.Record.Event().String())
	}
	c.JSON(http.StatusOK, toAnchorResponse(a))
}

func (s *Server) handleTraits(c *gin.Context) {
	h, err := protocol.ParseHash(c.Param("hashdragon"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	t, err := traits.Describe(h)
	if err != nil {
		abortWithError(c, err)
		return
	}
	virtues := gin.H{}
	for _, v := range t.Virtues() {
		virtues[v.Name] = gin.H{"value": v.Value, "percent": v.Percent(), "label": v.Label}
	}
	c.JSON(http.StatusOK, gin.H{
		"hashdragon":     t.Hashdragon,
		"strength":       t.Strength,
		"powerful":       t.Powerful(),
		"identity":       t.Identity,
		"colour":         fmt.Sprintf("#%02x%02x%02x", t.Colour[0], t.Colour[1], t.Colour[2]),
		"virtues":        virtues,
		"special_powers": t.SpecialPowers,
		"manifestation":  t.Manifestation,
		"arcana":         t.Arcana,
		"cabala":         t.Cabala,
		"maturity":       t.Maturity,
		"sigil":          t.Sigil,
	})
}

func (s *Server) handleTransaction(c *gin.Context) {
	var body transactionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		abortWithError(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	event, err := protocol.ParseEvent(body.Event)
	if err != nil {
		abortWithError(c, err)
		return
	}
	observability.SetEvent(c, event.String())
	order, err := optionalOrder(body.Order)
	if err != nil {
		abortWithError(c, err)
		return
	}

	res, err := s.svc.CreateTransaction(c.Request.Context(), events.TransactionRequest{
		Event:       event,
		Hashdragon:  body.Hashdragon,
		TxnRef:      strings.TrimSpace(body.TxnRef),
		CoinRef:     strings.TrimSpace(body.CoinRef),
		RescueRef:   body.RescueRef,
		Destination: body.Destination,
		Change:      body.Change,
		InputIndex:  body.InputIndex,
		OutputIndex: body.OutputIndex,
		Order:       order,
		Payment:     body.Payment,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, transactionResponse{
		TxID:          res.Tx.TxID(),
		Hex:           res.Tx.String(),
		Fee:           res.Fee,
		Change:        res.Change,
		EstimatedSize: res.EstimatedSize,
		Record:        protocol.Summarize(res.Record),
	})
}

func toAnchorResponse(a anchor.Anchor) anchorResponse {
	out := anchorResponse{
		TxID:        a.TxID,
		OutputIndex: a.OutputIndex,
		Breeding:    a.Breeding,
		Order:       a.Order.String(),
	}
	if a.Record != nil {
		sum := protocol.Summarize(a.Record)
		out.Record = &sum
	}
	return out
}

func optionalOrder(raw string) (*field.Order, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	o, err := field.ParseOrder(raw)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
