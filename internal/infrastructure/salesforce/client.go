package salesforce

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/leadbridge/backend/internal/domain/ports"
	"github.com/leadbridge/backend/pkg/errors"
)

// AccessTokenProvider supplies a valid bearer token per call. Session
// management (OAuth refresh, credential storage) lives outside the core.
type AccessTokenProvider func(ctx context.Context) (string, error)

// ClientOptions configures the Salesforce REST client
type ClientOptions struct {
	BaseURL       string
	APIVersion    string
	TokenProvider AccessTokenProvider
	HTTPClient    *http.Client
}

// Client implements ports.CRMClient against the Salesforce REST and
// Tooling APIs. All calls are blocking; callers impose timeouts via ctx.
type Client struct {
	baseURL       string
	apiVersion    string
	tokenProvider AccessTokenProvider
	httpClient    *http.Client
}

// NewClient creates a Salesforce client with sane defaults
func NewClient(opts ClientOptions) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	apiVersion := opts.APIVersion
	if apiVersion == "" {
		apiVersion = "v59.0"
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:       baseURL,
		apiVersion:    apiVersion,
		tokenProvider: opts.TokenProvider,
		httpClient:    httpClient,
	}
}

var _ ports.CRMClient = (*Client)(nil)

// apiError is one element of the Salesforce error response body
type apiError struct {
	Message   string `json:"message"`
	ErrorCode string `json:"errorCode"`
}

// DescribeObject introspects an object type, including picklist values
// with their active flag.
func (c *Client) DescribeObject(ctx context.Context, objectType string) (*ports.ObjectDescription, error) {
	path := fmt.Sprintf("/services/data/%s/sobjects/%s/describe", c.apiVersion, objectType)

	var payload struct {
		Name   string `json:"name"`
		Fields []struct {
			Name           string `json:"name"`
			Label          string `json:"label"`
			Type           string `json:"type"`
			Length         int    `json:"length"`
			PicklistValues []struct {
				Value  string `json:"value"`
				Label  string `json:"label"`
				Active bool   `json:"active"`
			} `json:"picklistValues"`
		} `json:"fields"`
	}

	if err := c.doJSON(ctx, http.MethodGet, path, nil, &payload, "describe "+objectType); err != nil {
		return nil, err
	}

	desc := &ports.ObjectDescription{Name: payload.Name}
	for _, f := range payload.Fields {
		fd := ports.FieldDescriptor{
			Name:   f.Name,
			Label:  f.Label,
			Type:   f.Type,
			Length: f.Length,
		}
		for _, pv := range f.PicklistValues {
			fd.PicklistValues = append(fd.PicklistValues, ports.PicklistValue{
				Value:  pv.Value,
				Label:  pv.Label,
				Active: pv.Active,
			})
		}
		desc.Fields = append(desc.Fields, fd)
	}
	return desc, nil
}

// CreateCustomField provisions a custom field via the Tooling API.
// A duplicate developer name is surfaced as *errors.DuplicateFieldError.
func (c *Client) CreateCustomField(ctx context.Context, objectType string, def ports.CustomFieldDefinition) error {
	path := fmt.Sprintf("/services/data/%s/tooling/sobjects/CustomField", c.apiVersion)

	body := map[string]interface{}{
		"FullName": fmt.Sprintf("%s.%s", objectType, def.FullName),
		"Metadata": map[string]interface{}{
			"label":    def.Label,
			"type":     def.Type,
			"length":   def.Length,
			"required": def.Required,
		},
	}

	err := c.doJSON(ctx, http.MethodPost, path, body, nil, "create field "+def.FullName)
	if err == nil {
		return nil
	}

	// The metadata API reports an existing field as a duplicate
	// developer name; the provisioner treats that as a skip.
	var remote *errors.RemoteAPIError
	if stderrors.As(err, &remote) {
		if remote.ErrorCode == "DUPLICATE_DEVELOPER_NAME" ||
			strings.Contains(strings.ToLower(remote.Message), "already in use") {
			return errors.NewDuplicateFieldError(def.FullName)
		}
	}
	return err
}

// UpsertRecord writes a flat field map and returns the remote record ID
func (c *Client) UpsertRecord(ctx context.Context, objectType string, fields map[string]interface{}) (string, error) {
	path := fmt.Sprintf("/services/data/%s/sobjects/%s", c.apiVersion, objectType)

	var payload struct {
		ID      string `json:"id"`
		Success bool   `json:"success"`
	}
	if err := c.doJSON(ctx, http.MethodPost, path, fields, &payload, "create "+objectType); err != nil {
		return "", err
	}
	if !payload.Success {
		return "", errors.NewRemoteAPIError("create "+objectType, "", "remote reported success=false")
	}
	return payload.ID, nil
}

// GetRecordState queries existence, deletion flag and last-modified
// timestamp. queryAll is used so soft-deleted records stay visible.
func (c *Client) GetRecordState(ctx context.Context, objectType, remoteID string) (*ports.RemoteRecordState, error) {
	soql := fmt.Sprintf("SELECT Id, IsDeleted, SystemModstamp FROM %s WHERE Id = '%s'",
		objectType, strings.ReplaceAll(remoteID, "'", ""))
	path := fmt.Sprintf("/services/data/%s/queryAll/?q=%s", c.apiVersion, url.QueryEscape(soql))

	var payload struct {
		TotalSize int `json:"totalSize"`
		Records   []struct {
			ID             string    `json:"Id"`
			IsDeleted      bool      `json:"IsDeleted"`
			SystemModstamp time.Time `json:"SystemModstamp"`
		} `json:"records"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &payload, "query "+objectType); err != nil {
		return nil, err
	}

	if payload.TotalSize == 0 || len(payload.Records) == 0 {
		return &ports.RemoteRecordState{ID: remoteID, Exists: false}, nil
	}

	rec := payload.Records[0]
	return &ports.RemoteRecordState{
		ID:           rec.ID,
		Exists:       true,
		IsDeleted:    rec.IsDeleted,
		LastModified: rec.SystemModstamp,
	}, nil
}

// doJSON performs one authenticated JSON round trip. Non-2xx responses
// become *errors.RemoteAPIError carrying the first remote error code.
func (c *Client) doJSON(ctx context.Context, method, path string, body interface{}, out interface{}, operation string) error {
	if c.tokenProvider == nil {
		return errors.NewInternalError("salesforce token provider is not configured", nil)
	}
	token, err := c.tokenProvider(ctx)
	if err != nil {
		return errors.NewRemoteAPIError(operation, "", fmt.Sprintf("failed to obtain access token: %v", err))
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return errors.NewInternalError("failed to encode request body", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.NewInternalError("failed to build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.NewRemoteAPIError(operation, "", err.Error())
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.NewRemoteAPIError(operation, "", fmt.Sprintf("failed to read response: %v", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Error bodies are arrays of {message, errorCode}
		var apiErrs []apiError
		if jsonErr := json.Unmarshal(raw, &apiErrs); jsonErr == nil && len(apiErrs) > 0 {
			return errors.NewRemoteAPIError(operation, apiErrs[0].ErrorCode, apiErrs[0].Message)
		}
		return errors.NewRemoteAPIError(operation, "", fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(raw)))
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return errors.NewRemoteAPIError(operation, "", fmt.Sprintf("failed to decode response: %v", err))
		}
	}
	return nil
}
