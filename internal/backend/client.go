// Package backend talks to the CalX REST API on behalf of a signed-in user.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/nulzo/calx-web/internal/httpclient"
	"github.com/nulzo/calx-web/pkg/api"
)

// envelope is the backend's response wrapper.
type envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error,omitempty"`
}

type Client struct {
	baseURL string
	client  httpclient.HTTPClient
}

func NewClient(baseURL string, client httpclient.HTTPClient) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// do sends one request and unwraps the envelope into out (may be nil).
func do[T any](ctx context.Context, c *Client, method, path, token string, body interface{}, out *T) error {
	headers := map[string]string{}
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}

	var env envelope[T]
	err := httpclient.SendRequest(ctx, c.client, method, c.baseURL+path, headers, body, &env)
	if err != nil {
		var upErr *httpclient.UpstreamError
		if errors.As(err, &upErr) {
			return asBackendError(upErr)
		}
		// some endpoints answer with an empty body
		if out == nil && errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}

	if out != nil {
		*out = env.Data
	}
	return nil
}

func asBackendError(upErr *httpclient.UpstreamError) *Error {
	msg := defaultErrorMessage
	var env envelope[json.RawMessage]
	if json.Unmarshal(upErr.Body, &env) == nil && env.Error != "" {
		msg = env.Error
	}
	return &Error{Status: upErr.StatusCode, Message: msg}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *Client) Register(ctx context.Context, email, password string) (string, error) {
	var data struct {
		UserID string `json:"user_id"`
	}
	if err := do(ctx, c, http.MethodPost, "/web/auth/register", "", credentials{email, password}, &data); err != nil {
		return "", err
	}
	return data.UserID, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*api.LoginResult, error) {
	var data api.LoginResult
	if err := do(ctx, c, http.MethodPost, "/web/auth/login", "", credentials{email, password}, &data); err != nil {
		return nil, err
	}
	if data.Token == "" {
		return nil, fmt.Errorf("login response carried no token")
	}
	return &data, nil
}

func (c *Client) ListDevices(ctx context.Context, token string) ([]api.Device, error) {
	var data struct {
		Devices []api.Device `json:"devices"`
	}
	if err := do(ctx, c, http.MethodGet, "/web/device/list", token, nil, &data); err != nil {
		return nil, err
	}
	if data.Devices == nil {
		data.Devices = []api.Device{}
	}
	return data.Devices, nil
}

// FindDevice returns the device with the given id from the user's list.
func (c *Client) FindDevice(ctx context.Context, token, deviceID string) (*api.Device, error) {
	devices, err := c.ListDevices(ctx, token)
	if err != nil {
		return nil, err
	}
	for i := range devices {
		if devices[i].ID == deviceID {
			return &devices[i], nil
		}
	}
	return nil, &Error{Status: http.StatusNotFound, Message: "Device not found"}
}

func (c *Client) BindDevice(ctx context.Context, token, bindCode string) (*api.BindResult, error) {
	body := map[string]string{"bind_code": bindCode}
	var data api.BindResult
	if err := do(ctx, c, http.MethodPost, "/web/bind/confirm", token, body, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

func (c *Client) DeviceActivity(ctx context.Context, token, deviceID string) (*api.DeviceActivity, error) {
	var data api.DeviceActivity
	path := "/web/device/" + url.PathEscape(deviceID) + "/activity"
	if err := do(ctx, c, http.MethodGet, path, token, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

func (c *Client) RevokeDeviceToken(ctx context.Context, token, deviceID string) error {
	path := "/web/device/" + url.PathEscape(deviceID) + "/revoke-token"
	return do[json.RawMessage](ctx, c, http.MethodPost, path, token, nil, nil)
}

func (c *Client) UpdateSettings(ctx context.Context, token string, settings api.DeviceSettings) error {
	return do[json.RawMessage](ctx, c, http.MethodPost, "/web/device/settings", token, settings, nil)
}

// Messages lists the chat history, optionally only messages after since.
func (c *Client) Messages(ctx context.Context, token, deviceID, since string) ([]api.ChatMessage, error) {
	q := url.Values{}
	q.Set("device_id", deviceID)
	if since != "" {
		q.Set("since", since)
	}

	var data struct {
		Messages []api.ChatMessage `json:"messages"`
	}
	if err := do(ctx, c, http.MethodGet, "/web/chat/messages?"+q.Encode(), token, nil, &data); err != nil {
		return nil, err
	}
	if data.Messages == nil {
		data.Messages = []api.ChatMessage{}
	}
	return data.Messages, nil
}

func (c *Client) SendMessage(ctx context.Context, token, deviceID, content string) (*api.ChatMessage, error) {
	body := map[string]string{"device_id": deviceID, "content": content}
	var data struct {
		Message api.ChatMessage `json:"message"`
	}
	if err := do(ctx, c, http.MethodPost, "/web/chat/send", token, body, &data); err != nil {
		return nil, err
	}
	return &data.Message, nil
}

// UploadFile replaces the device's notes file and returns its character count.
func (c *Client) UploadFile(ctx context.Context, token, deviceID, content string) (int, error) {
	body := map[string]string{"device_id": deviceID, "content": content}
	var data struct {
		CharCount int `json:"char_count"`
	}
	if err := do(ctx, c, http.MethodPost, "/web/file/upload", token, body, &data); err != nil {
		return 0, err
	}
	return data.CharCount, nil
}

func (c *Client) DeleteFile(ctx context.Context, token, deviceID string) error {
	return do[json.RawMessage](ctx, c, http.MethodDelete, "/web/file/"+url.PathEscape(deviceID), token, nil, nil)
}

func (c *Client) TriggerOTA(ctx context.Context, token, deviceID, firmwareID string) (string, error) {
	body := map[string]string{"device_id": deviceID, "firmware_id": firmwareID}
	var data struct {
		JobID string `json:"job_id"`
	}
	if err := do(ctx, c, http.MethodPost, "/web/device/update/trigger", token, body, &data); err != nil {
		return "", err
	}
	return data.JobID, nil
}

func (c *Client) ListFirmware(ctx context.Context, token string) ([]api.Firmware, error) {
	var data struct {
		Firmware []api.Firmware `json:"firmware"`
	}
	if err := do(ctx, c, http.MethodGet, "/web/device/update/firmware", token, nil, &data); err != nil {
		return nil, err
	}
	if data.Firmware == nil {
		data.Firmware = []api.Firmware{}
	}
	return data.Firmware, nil
}
