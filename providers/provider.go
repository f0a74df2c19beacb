package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/SwiftFiat/SwiftFiat-Queue/models"
	"github.com/SwiftFiat/SwiftFiat-Queue/services/monitoring/logging"
	"github.com/sirupsen/logrus"
)

const (
	Anomaly      = "ANOMALY"
	Notification = "NOTIFICATION"
	Geocoding    = "GOOGLE_GEOCODING"
)

// BaseProvider contains common fields and methods
type BaseProvider struct {
	Name    string
	BaseURL string
	APIKey  string
	Client  *http.Client
	Logger  *logging.Logger

	rpcID int64
}

// MakeRequest sends body as JSON. A non-nil error means the service could not
// be reached; status handling is left to the caller.
func (p *BaseProvider) MakeRequest(ctx context.Context, method, url string, body interface{}, extraHeaders map[string]string) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if p.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.APIKey)
	}
	// Allows for overwriting pre-set keys
	for k, v := range extraHeaders {
		req.Header.Set(k, v)
	}

	if p.Logger != nil {
		p.Logger.WithFields(logrus.Fields{"provider": p.Name, "method": method, "url": req.URL.Path}).Debug("External Request")
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, models.Transient(p.Name, err)
	}
	return resp, nil
}

// Call performs a JSON-RPC 2.0 call against BaseURL and decodes the result
// into out. Transport failures and 5xx answers are transient.
func (p *BaseProvider) Call(ctx context.Context, method string, params interface{}, out interface{}) error {
	req := models.RPCRequest{
		JSONRPC: models.JSONRPCVersion,
		Method:  method,
		ID:      json.RawMessage(fmt.Sprintf("%d", atomic.AddInt64(&p.rpcID, 1))),
	}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("encode %s params: %w", method, err)
		}
		req.Params = raw
	}

	resp, err := p.MakeRequest(ctx, http.MethodPost, p.BaseURL, req, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.Transient(p.Name, err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		if p.Logger != nil {
			p.Logger.WithFields(logrus.Fields{
				"provider":    p.Name,
				"status_code": resp.StatusCode,
				"rpc_method":  method,
			}).Error("Unexpected response from provider")
		}
		return models.Transient(p.Name, fmt.Errorf("%s returned status %d", method, resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: %s returned status %d", p.Name, method, resp.StatusCode)
	}

	var rpcResp models.RPCResponse
	if err := json.Unmarshal(bodyBytes, &rpcResp); err != nil {
		return fmt.Errorf("error decoding %s response: %w", method, err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("%s: %s failed: %w", p.Name, method, rpcResp.Error)
	}
	if out == nil || len(rpcResp.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(rpcResp.Result, out); err != nil {
		return fmt.Errorf("error decoding %s result: %w", method, err)
	}
	return nil
}

// Provider is an interface that all specific providers must implement
type Provider interface {
	GetName() string
	GetBaseURL() string
	GetAPIKey() string
	GetClient() *http.Client
}

// ProviderService manages multiple providers
type ProviderService struct {
	providers map[string]Provider
	mu        sync.RWMutex
}

// NewProviderService initializes a new ProviderService
func NewProviderService() *ProviderService {
	return &ProviderService{
		providers: make(map[string]Provider),
	}
}

// AddProvider adds a new provider to the service
func (s *ProviderService) AddProvider(provider Provider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.providers[provider.GetName()] = provider
}

// GetProvider retrieves a provider by name
func (s *ProviderService) GetProvider(name string) (Provider, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	provider, exists := s.providers[name]
	return provider, exists
}

// Lookup retrieves the provider registered under name as a T.
func Lookup[T Provider](s *ProviderService, name string) (T, error) {
	var zero T
	provider, exists := s.GetProvider(name)
	if !exists {
		return zero, fmt.Errorf("failed to get provider: '%s'", name)
	}
	typed, ok := provider.(T)
	if !ok {
		return zero, fmt.Errorf("provider '%s' is a %T", name, provider)
	}
	return typed, nil
}

func (s *ProviderService) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.providers))
	for name := range s.providers {
		names = append(names, name)
	}
	return names
}

// Implement the Provider interface methods for BaseProvider
func (bp *BaseProvider) GetName() string         { return bp.Name }
func (bp *BaseProvider) GetBaseURL() string      { return bp.BaseURL }
func (bp *BaseProvider) GetAPIKey() string       { return bp.APIKey }
func (bp *BaseProvider) GetClient() *http.Client { return bp.Client }
