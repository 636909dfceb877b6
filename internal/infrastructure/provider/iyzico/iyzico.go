// Package iyzico implements the payment gateway port against the iyzico
// REST API.
package iyzico

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/seffafbagis/donation-platform/internal/domain/provider"
)

const (
	defaultBaseURL = "https://api.iyzipay.com"
	requestTimeout = 30 * time.Second
)

// Provider is the iyzico gateway adapter.
type Provider struct {
	baseURL   string
	apiKey    string
	secretKey string
	client    *http.Client
	logger    *zap.Logger
}

// New creates an iyzico provider. An empty baseURL selects production.
func New(baseURL, apiKey, secretKey string, logger *zap.Logger) *Provider {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Provider{
		baseURL:   baseURL,
		apiKey:    apiKey,
		secretKey: secretKey,
		client:    &http.Client{Timeout: requestTimeout},
		logger:    logger,
	}
}

// Name returns the provider name recorded on transactions.
func (p *Provider) Name() string {
	return "iyzico"
}

type chargeResponse struct {
	Status              string `json:"status"`
	PaymentID           string `json:"paymentId"`
	PaidPrice           string `json:"paidPrice"`
	IyziCommissionFee   string `json:"iyziCommissionFee"`
	CardToken           string `json:"cardToken"`
	CardUserKey         string `json:"cardUserKey"`
	BinNumber           string `json:"binNumber"`
	LastFourDigits      string `json:"lastFourDigits"`
	ErrorCode           string `json:"errorCode"`
	ErrorMessage        string `json:"errorMessage"`
	ItemTransactions    []struct {
		PaymentTransactionID string `json:"paymentTransactionId"`
	} `json:"itemTransactions"`
}

// Charge performs a direct (non-3DS) charge with a stored card token.
// POST /payment/auth
func (p *Provider) Charge(ctx context.Context, req *provider.ChargeRequest) (*provider.ChargeResult, error) {
	body := p.chargeBody(req)

	raw, err := p.doRequest(ctx, "/payment/auth", body)
	if err != nil {
		return nil, err
	}
	return p.parseChargeResult(raw)
}

// Initialize3DS starts a 3-D Secure flow.
// POST /payment/3dsecure/initialize
func (p *Provider) Initialize3DS(ctx context.Context, req *provider.ChargeRequest) (*provider.ThreeDSInitResult, error) {
	body := p.chargeBody(req)
	body["callbackUrl"] = req.CallbackURL

	raw, err := p.doRequest(ctx, "/payment/3dsecure/initialize", body)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Status           string `json:"status"`
		PaymentID        string `json:"paymentId"`
		ThreeDSHTMLContent string `json:"threeDSHtmlContent"`
		ErrorCode        string `json:"errorCode"`
		ErrorMessage     string `json:"errorMessage"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &provider.Error{
			Code:    "PARSE_ERROR",
			Message: "Failed to parse 3DS initialize response",
			Details: err.Error(),
		}
	}
	if resp.Status != "success" {
		return nil, &provider.Error{
			Code:    resp.ErrorCode,
			Message: resp.ErrorMessage,
		}
	}

	// iyzico sends the challenge form base64-encoded.
	html, err := base64.StdEncoding.DecodeString(resp.ThreeDSHTMLContent)
	if err != nil {
		html = []byte(resp.ThreeDSHTMLContent)
	}

	p.logger.Info("3DS initialize succeeded",
		zap.String("conversation_id", req.ConversationID),
		zap.String("payment_id", resp.PaymentID))
	return &provider.ThreeDSInitResult{
		HTMLContent:       string(html),
		ProviderPaymentID: resp.PaymentID,
	}, nil
}

// Complete3DS finishes a 3DS flow after the bank callback.
// POST /payment/3dsecure/auth
func (p *Provider) Complete3DS(ctx context.Context, providerPaymentID, conversationID string) (*provider.ChargeResult, error) {
	body := map[string]interface{}{
		"locale":         "tr",
		"conversationId": conversationID,
		"paymentId":      providerPaymentID,
	}

	raw, err := p.doRequest(ctx, "/payment/3dsecure/auth", body)
	if err != nil {
		return nil, err
	}
	return p.parseChargeResult(raw)
}

// Refund returns money against a payment transaction.
// POST /payment/refund
func (p *Provider) Refund(ctx context.Context, req *provider.RefundRequest) (*provider.RefundResult, error) {
	body := map[string]interface{}{
		"locale":               "tr",
		"paymentTransactionId": req.ProviderTransactionID,
		"price":                req.Amount.StringFixed(2),
		"currency":             req.Currency,
	}

	raw, err := p.doRequest(ctx, "/payment/refund", body)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Status       string `json:"status"`
		Price        string `json:"price"`
		ErrorCode    string `json:"errorCode"`
		ErrorMessage string `json:"errorMessage"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &provider.Error{
			Code:    "PARSE_ERROR",
			Message: "Failed to parse refund response",
			Details: err.Error(),
		}
	}

	result := &provider.RefundResult{
		Success:   resp.Status == "success",
		ErrorCode: resp.ErrorCode,
		ErrorMsg:  resp.ErrorMessage,
	}
	if resp.Price != "" {
		if amount, err := decimal.NewFromString(resp.Price); err == nil {
			result.RefundedAmount = amount
		}
	}
	return result, nil
}

func (p *Provider) chargeBody(req *provider.ChargeRequest) map[string]interface{} {
	body := map[string]interface{}{
		"locale":         "tr",
		"conversationId": req.ConversationID,
		"price":          req.Amount.StringFixed(2),
		"paidPrice":      req.Amount.StringFixed(2),
		"currency":       req.Currency,
		"installment":    1,
	}
	if req.Card != nil {
		card := map[string]interface{}{
			"cardHolderName": req.Card.HolderName,
			"cardNumber":     req.Card.Number,
			"expireMonth":    req.Card.ExpireMonth,
			"expireYear":     req.Card.ExpireYear,
			"cvc":            req.Card.CVC,
		}
		if req.Card.RegisterCard {
			card["registerCard"] = 1
		}
		body["paymentCard"] = card
	} else if req.CardToken != "" {
		body["paymentCard"] = map[string]interface{}{
			"cardToken":   req.CardToken,
			"cardUserKey": req.CardUserKey,
		}
	}
	if req.BuyerID != "" {
		body["buyer"] = map[string]interface{}{
			"id":    req.BuyerID,
			"email": req.BuyerEmail,
		}
	}
	return body
}

func (p *Provider) parseChargeResult(raw []byte) (*provider.ChargeResult, error) {
	var resp chargeResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &provider.Error{
			Code:    "PARSE_ERROR",
			Message: "Failed to parse charge response",
			Details: err.Error(),
		}
	}

	var rawMap map[string]interface{}
	json.Unmarshal(raw, &rawMap)

	result := &provider.ChargeResult{
		Success:           resp.Status == "success",
		ProviderPaymentID: resp.PaymentID,
		CardLastFour:      resp.LastFourDigits,
		CardToken:         resp.CardToken,
		CardUserKey:       resp.CardUserKey,
		ErrorCode:         resp.ErrorCode,
		ErrorMsg:          resp.ErrorMessage,
		Raw:               rawMap,
	}
	if len(resp.ItemTransactions) > 0 {
		result.ProviderTransactionID = resp.ItemTransactions[0].PaymentTransactionID
	}
	if resp.PaidPrice != "" {
		if amount, err := decimal.NewFromString(resp.PaidPrice); err == nil {
			result.PaidAmount = amount
		}
	}
	if resp.IyziCommissionFee != "" {
		if fee, err := decimal.NewFromString(resp.IyziCommissionFee); err == nil {
			result.FeeAmount = fee
		}
	}
	return result, nil
}

func (p *Provider) doRequest(ctx context.Context, path string, body map[string]interface{}) ([]byte, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, &provider.Error{
			Code:    "MARSHAL_ERROR",
			Message: "Failed to prepare request",
			Details: err.Error(),
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, &provider.Error{
			Code:    "REQUEST_ERROR",
			Message: "Failed to create request",
			Details: err.Error(),
		}
	}

	randomKey := randomHex(8)
	httpReq.Header.Set("Authorization", p.authorization(randomKey, jsonBody))
	httpReq.Header.Set("x-iyzi-rnd", randomKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		p.logger.Error("iyzico request failed",
			zap.String("path", path),
			zap.Error(err))
		return nil, &provider.Error{
			Code:    "API_ERROR",
			Message: "iyzico API request failed",
			Details: err.Error(),
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &provider.Error{
			Code:    "RESPONSE_ERROR",
			Message: "Failed to read response",
			Details: err.Error(),
		}
	}

	p.logger.Debug("iyzico response",
		zap.String("path", path),
		zap.Int("status_code", resp.StatusCode))
	return respBody, nil
}

// authorization builds the IYZWS v1 header: base64(sha1(apiKey + random +
// secretKey + body)) keyed by the api key.
func (p *Provider) authorization(randomKey string, body []byte) string {
	h := sha1.New()
	h.Write([]byte(p.apiKey))
	h.Write([]byte(randomKey))
	h.Write([]byte(p.secretKey))
	h.Write(body)
	hash := base64.StdEncoding.EncodeToString(h.Sum(nil))
	return fmt.Sprintf("IYZWS %s:%s", p.apiKey, hash)
}

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return fmt.Sprintf("%x", b)
}
