package odoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"

	"parcel-portal/internal/config"
	"parcel-portal/internal/inventory"
)

// ProductModel is the ERP model lots are stored as
const ProductModel = "product.template"

const rpcPath = "/jsonrpc"

// Client calls the ERP's JSON-RPC endpoint with execute_kw
type Client struct {
	httpClient *resty.Client
	db         string
	userID     int
	password   string
	nextID     atomic.Int64
}

// NewClient builds an ERP client from configuration
func NewClient(cfg config.OdooConfig) *Client {
	restyClient := resty.New()
	restyClient.
		SetBaseURL(cfg.URL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(30 * time.Second)

	return &Client{
		httpClient: restyClient,
		db:         cfg.DB,
		userID:     cfg.UserID,
		password:   cfg.Password,
	}
}

type rpcRequest struct {
	JSONRPC string    `json:"jsonrpc"`
	Method  string    `json:"method"`
	Params  rpcParams `json:"params"`
	ID      int64     `json:"id"`
}

type rpcParams struct {
	Service string `json:"service"`
	Method  string `json:"method"`
	Args    []any  `json:"args"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

// RPCError is an error reported inside a JSON-RPC response
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Name    string `json:"name"`
		Message string `json:"message"`
	} `json:"data"`
}

func (e *RPCError) Error() string {
	if e.Data.Message != "" {
		return fmt.Sprintf("odoo error %d: %s - %s", e.Code, e.Message, e.Data.Message)
	}
	return fmt.Sprintf("odoo error %d: %s", e.Code, e.Message)
}

// ExecuteKW runs model.method(args, kwargs) and decodes the result into out
func (c *Client) ExecuteKW(ctx context.Context, model, method string, args []any, kwargs map[string]any, out any) error {
	if kwargs == nil {
		kwargs = map[string]any{}
	}
	req := rpcRequest{
		JSONRPC: "2.0",
		Method:  "call",
		Params: rpcParams{
			Service: "object",
			Method:  "execute_kw",
			Args:    []any{c.db, c.userID, c.password, model, method, args, kwargs},
		},
		ID: c.nextID.Add(1),
	}

	result := new(rpcResponse)
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(result).
		Post(rpcPath)
	if err != nil {
		return fmt.Errorf("odoo %s.%s: %w", model, method, err)
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return fmt.Errorf("odoo %s.%s: http status %d", model, method, resp.StatusCode())
	}
	if result.Error != nil {
		return fmt.Errorf("odoo %s.%s: %w", model, method, result.Error)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(result.Result, out); err != nil {
		return fmt.Errorf("odoo %s.%s: decode result: %w", model, method, err)
	}
	return nil
}

// FetchProducts returns every active product with the lot fields
func (c *Client) FetchProducts(ctx context.Context) ([]inventory.Record, error) {
	domain := []any{[]any{"active", "=", true}}
	kwargs := map[string]any{"fields": inventory.Fields}

	var records []inventory.Record
	if err := c.ExecuteKW(ctx, ProductModel, "search_read", []any{domain}, kwargs, &records); err != nil {
		return nil, err
	}
	return records, nil
}
