package server

import (
	"errors"
	"net/http"

	"github.com/danmuck/hashdragon/internal/anchor"
	"github.com/danmuck/hashdragon/internal/assemble"
	"github.com/danmuck/hashdragon/internal/events"
	"github.com/danmuck/hashdragon/internal/lookup"
	"github.com/danmuck/hashdragon/internal/protocol"
	"github.com/danmuck/hashdragon/internal/protocol/field"
	"github.com/danmuck/hashdragon/internal/traits"
	"github.com/gin-gonic/gin"
)

var errBadRequest = errors.New("server: bad request")

type errorClass struct {
	target error
	status int
	kind   string
}

// Checked in order; the first match wins.
var errorClasses = []errorClass{
	{lookup.ErrNotFound, http.StatusNotFound, "not_found"},
	{lookup.ErrLookupFailed, http.StatusBadGateway, "lookup_failed"},
	{protocol.ErrUnsupportedEvent, http.StatusNotImplemented, "unsupported_event"},
	{anchor.ErrIdentifierMismatch, http.StatusUnprocessableEntity, "identifier_mismatch"},
	{anchor.ErrNotAProtocolOutput, http.StatusUnprocessableEntity, "not_a_protocol_output"},
	{anchor.ErrMissingProtocolOutput, http.StatusUnprocessableEntity, "missing_protocol_output"},
	{assemble.ErrInsufficientFunds, http.StatusUnprocessableEntity, "insufficient_funds"},
	{assemble.ErrMissingFundingOutput, http.StatusUnprocessableEntity, "missing_funding_output"},
	{protocol.ErrMalformedHeader, http.StatusUnprocessableEntity, "malformed_header"},
	{protocol.ErrUnknownCommand, http.StatusUnprocessableEntity, "unknown_command"},
	{protocol.ErrLengthMismatch, http.StatusUnprocessableEntity, "length_mismatch"},
	{traits.ErrNotAHashdragon, http.StatusUnprocessableEntity, "not_a_hashdragon"},
	{assemble.ErrInvalidAddress, http.StatusBadRequest, "invalid_address"},
	{events.ErrInvalidRequest, http.StatusBadRequest, "invalid_request"},
	{protocol.ErrUnknownEvent, http.StatusBadRequest, "unknown_event"},
	{protocol.ErrInvalidHex, http.StatusBadRequest, "invalid_hex"},
	{protocol.ErrUnknownMode, http.StatusBadRequest, "unknown_mode"},
	{field.ErrInvalidOrder, http.StatusBadRequest, "invalid_order"},
	{errBadRequest, http.StatusBadRequest, "bad_request"},
}

func classify(err error) (int, string) {
	for _, c := range errorClasses {
		if errors.Is(err, c.target) {
			return c.status, c.kind
		}
	}
	return http.StatusInternalServerError, "internal"
}

func abortWithError(c *gin.Context, err error) {
	status, kind := classify(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error(), "kind": kind})
}
