// Package lookup fetches raw transactions from a bitcoin.com style REST API.
package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/danmuck/hashdragon/internal/observability"
	"github.com/libsv/go-bt/v2"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const DefaultBaseURL = "https://rest.bitcoin.com/v2"

var (
	ErrLookupFailed = errors.New("lookup: transaction lookup failed")
	ErrNotFound     = errors.New("lookup: transaction not found")
)

// Fetcher resolves a transaction id to its verbose record.
type Fetcher interface {
	Fetch(ctx context.Context, txid string) (*Transaction, error)
}

type ScriptSig struct {
	Asm string `json:"asm"`
	Hex string `json:"hex"`
}

type Input struct {
	TxID      string    `json:"txid"`
	Vout      uint32    `json:"vout"`
	ScriptSig ScriptSig `json:"scriptSig"`
	Sequence  uint32    `json:"sequence"`
}

type ScriptPubKey struct {
	Asm       string   `json:"asm"`
	Hex       string   `json:"hex"`
	Type      string   `json:"type"`
	ReqSigs   *int     `json:"reqSigs,omitempty"`
	Addresses []string `json:"addresses,omitempty"`
}

type Output struct {
	Value        float64      `json:"value"`
	N            uint32       `json:"n"`
	ScriptPubKey ScriptPubKey `json:"scriptPubKey"`
}

// Transaction is the verbose getRawTransaction response.
type Transaction struct {
	TxID          string   `json:"txid"`
	Hash          string   `json:"hash"`
	Version       uint32   `json:"version"`
	Size          uint32   `json:"size"`
	LockTime      uint32   `json:"locktime"`
	Vin           []Input  `json:"vin"`
	Vout          []Output `json:"vout"`
	Hex           string   `json:"hex"`
	BlockHash     string   `json:"blockhash"`
	Confirmations uint32   `json:"confirmations"`
	Time          uint32   `json:"time"`
	BlockTime     uint32   `json:"blocktime"`
}

// Tx parses the raw hex and checks it hashes to the reported txid.
func (t *Transaction) Tx() (*bt.Tx, error) {
	if t == nil || strings.TrimSpace(t.Hex) == "" {
		return nil, fmt.Errorf("%w: response has no raw transaction", ErrLookupFailed)
	}
	tx, err := bt.NewTxFromString(strings.TrimSpace(t.Hex))
	if err != nil {
		return nil, fmt.Errorf("%w: parse raw transaction: %v", ErrLookupFailed, err)
	}
	if t.TxID != "" && !strings.EqualFold(tx.TxID(), t.TxID) {
		return nil, fmt.Errorf("%w: raw transaction hashes to %s, response says %s", ErrLookupFailed, tx.TxID(), t.TxID)
	}
	return tx, nil
}

// Config tunes the REST client.
type Config struct {
	BaseURL       string
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
}

func DefaultConfig() Config {
	return Config{
		BaseURL:       DefaultBaseURL,
		Timeout:       10 * time.Second,
		RatePerSecond: 2,
		Burst:         1,
	}
}

// Client is a Fetcher backed by the REST API. Safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	log     zerolog.Logger
}

var _ Fetcher = (*Client)(nil)

func NewClient(cfg Config, logger zerolog.Logger) *Client {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultConfig().Timeout
	}
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return &Client{
		baseURL: base,
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(limit, burst),
		log:     logger.With().Str("component", "lookup").Logger(),
	}
}

// Fetch retrieves txid. Errors wrap ErrLookupFailed; a 404 also wraps ErrNotFound.
func (c *Client) Fetch(ctx context.Context, txid string) (*Transaction, error) {
	txid = strings.TrimSpace(txid)
	if txid == "" {
		return nil, fmt.Errorf("%w: empty transaction id", ErrLookupFailed)
	}
	start := time.Now()
	tx, status, err := c.fetch(ctx, txid)
	observability.RecordLookup(status, err == nil, time.Since(start))
	if err != nil {
		c.log.Debug().Err(err).Str("txid", txid).Int("status", status).Msg("lookup failed")
		return nil, err
	}
	c.log.Debug().Str("txid", txid).Uint32("time", tx.Time).Dur("took", time.Since(start)).Msg("lookup ok")
	return tx, nil
}

func (c *Client) fetch(ctx context.Context, txid string) (*Transaction, int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrLookupFailed, err)
	}
	endpoint := fmt.Sprintf("%s/rawtransactions/getRawTransaction/%s?verbose=true", c.baseURL, url.PathEscape(txid))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrLookupFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrLookupFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: read body: %w", ErrLookupFailed, err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, resp.StatusCode, fmt.Errorf("%w: %w: %s", ErrLookupFailed, ErrNotFound, txid)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, resp.StatusCode, fmt.Errorf("%w: status %d: %s", ErrLookupFailed, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var tx Transaction
	if err := json.Unmarshal(body, &tx); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: decode response: %w", ErrLookupFailed, err)
	}
	if tx.TxID == "" {
		return nil, resp.StatusCode, fmt.Errorf("%w: response missing txid", ErrLookupFailed)
	}
	return &tx, resp.StatusCode, nil
}

// Static serves transactions from memory, keyed by txid.
type Static map[string]*Transaction

var _ Fetcher = Static(nil)

func (s Static) Fetch(_ context.Context, txid string) (*Transaction, error) {
	tx, ok := s[strings.TrimSpace(txid)]
	if !ok {
		return nil, fmt.Errorf("%w: %w: %s", ErrLookupFailed, ErrNotFound, txid)
	}
	return tx, nil
}

// FromTx builds a verbose record for a parsed transaction, as Static entries.
func FromTx(tx *bt.Tx, timestamp uint32) *Transaction {
	out := &Transaction{
		TxID:      tx.TxID(),
		Hash:      tx.TxID(),
		Version:   tx.Version,
		Size:      uint32(tx.Size()),
		LockTime:  tx.LockTime,
		Hex:       tx.String(),
		Time:      timestamp,
		BlockTime: timestamp,
	}
	for i, o := range tx.Outputs {
		var script string
		if o.LockingScript != nil {
			script = o.LockingScript.String()
		}
		out.Vout = append(out.Vout, Output{
			Value:        float64(o.Satoshis) / 1e8,
			N:            uint32(i),
			ScriptPubKey: ScriptPubKey{Hex: script},
		})
	}
	return out
}
