package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Nexora-Open-Source/smartedu/schema"
	"github.com/sirupsen/logrus"
)

// Login authenticates and initialises the session
func (c *Client) Login(ctx context.Context, email, password string) (*schema.User, error) {
	body, err := json.Marshal(schema.Credentials{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	resp, err := c.Do(ctx, http.MethodPost, RouteLogin, RouteLogin, body)
	if err != nil {
		return nil, err
	}
	sess, err := schema.DecodeLogin(resp)
	if err != nil {
		return nil, fmt.Errorf("unexpected login response: %w", err)
	}
	if c.session != nil {
		if err := c.session.Init(sess.Token, sess.User); err != nil {
			return nil, fmt.Errorf("failed to store session: %w", err)
		}
	}
	c.clearCache()

	c.logger.WithFields(logrus.Fields{
		"user_id": sess.User.ID,
		"email":   sess.User.Email,
	}).Info("Logged in")
	return &sess.User, nil
}

// Register creates a new account. It does not log in.
func (c *Client) Register(ctx context.Context, creds schema.Credentials) error {
	body, err := json.Marshal(creds)
	if err != nil {
		return err
	}
	_, err = c.Do(ctx, http.MethodPost, RouteRegister, RouteRegister, body)
	return err
}

// Logout tears the session down. The local session is cleared even when the
// backend call fails.
func (c *Client) Logout(ctx context.Context) error {
	if c.session != nil {
		if _, ok := c.session.Token(); ok {
			if _, err := c.Do(ctx, http.MethodPost, RouteLogout, RouteLogout, nil); err != nil {
				c.logger.WithError(err).Warn("Backend logout failed, clearing local session anyway")
			}
		}
		if err := c.session.Clear(); err != nil {
			return fmt.Errorf("failed to clear session: %w", err)
		}
	}
	c.clearCache()
	return nil
}

// dataOrEmpty returns nil data for an empty envelope
func dataOrEmpty(body []byte) (json.RawMessage, error) {
	data, err := schema.DataOf(body)
	if errors.Is(err, schema.ErrEmptyData) {
		return nil, nil
	}
	return data, err
}

// ListMateriPokok lists job-role profiles
func (c *Client) ListMateriPokok(ctx context.Context) ([]schema.MateriPokok, error) {
	body, err := c.getCached(ctx, RouteMateriList, RouteMateriList)
	if err != nil {
		return nil, err
	}
	data, err := dataOrEmpty(body)
	if err != nil {
		return nil, err
	}
	return schema.DecodeMateriPokokList(data)
}

// GetMateriPokok fetches one job-role profile
func (c *Client) GetMateriPokok(ctx context.Context, id string) (*schema.MateriPokok, error) {
	if err := requireID("materi pokok", id); err != nil {
		return nil, err
	}
	body, err := c.Do(ctx, http.MethodGet, RouteMateriItem, ItemPath(RouteMateriItem, id), nil)
	if err != nil {
		return nil, err
	}
	data, err := schema.DataOf(body)
	if err != nil {
		return nil, err
	}
	return schema.DecodeMateriPokok(data)
}

// CreateMateriPokok creates a job-role profile. When the backend does not
// echo the created entity the input is returned unchanged.
func (c *Client) CreateMateriPokok(ctx context.Context, m schema.MateriPokok) (*schema.MateriPokok, error) {
	body, err := schema.EncodeMateriPokok(m)
	if err != nil {
		return nil, err
	}
	resp, err := c.mutate(ctx, http.MethodPost, RouteMateriList, RouteMateriList, RouteMateriList, body)
	if err != nil {
		return nil, err
	}
	data, err := dataOrEmpty(resp)
	if err != nil || data == nil {
		return &m, nil
	}
	return schema.DecodeMateriPokok(data)
}

// UpdateMateriPokok replaces a job-role profile
func (c *Client) UpdateMateriPokok(ctx context.Context, id string, m schema.MateriPokok) error {
	if err := requireID("materi pokok", id); err != nil {
		return err
	}
	body, err := schema.EncodeMateriPokok(m)
	if err != nil {
		return err
	}
	_, err = c.mutate(ctx, http.MethodPut, RouteMateriItem, ItemPath(RouteMateriItem, id), RouteMateriList, body)
	return err
}

// DeleteMateriPokok deletes a job-role profile
func (c *Client) DeleteMateriPokok(ctx context.Context, id string) error {
	if err := requireID("materi pokok", id); err != nil {
		return err
	}
	_, err := c.mutate(ctx, http.MethodDelete, RouteMateriItem, ItemPath(RouteMateriItem, id), RouteMateriList, nil)
	return err
}

// ListModels lists prompt models
func (c *Client) ListModels(ctx context.Context) ([]schema.PromptModel, error) {
	body, err := c.getCached(ctx, RouteModelList, RouteModelList)
	if err != nil {
		return nil, err
	}
	data, err := dataOrEmpty(body)
	if err != nil {
		return nil, err
	}
	return schema.DecodePromptModelList(data)
}

// CreateModel creates a prompt model
func (c *Client) CreateModel(ctx context.Context, m schema.PromptModel) (*schema.PromptModel, error) {
	body, err := schema.EncodePromptModel(m)
	if err != nil {
		return nil, err
	}
	resp, err := c.mutate(ctx, http.MethodPost, RouteModelList, RouteModelList, RouteModelList, body)
	if err != nil {
		return nil, err
	}
	data, err := dataOrEmpty(resp)
	if err != nil || data == nil {
		return &m, nil
	}
	return schema.DecodePromptModel(data)
}

// UpdateModel replaces a prompt model
func (c *Client) UpdateModel(ctx context.Context, id string, m schema.PromptModel) error {
	if err := requireID("model", id); err != nil {
		return err
	}
	body, err := schema.EncodePromptModel(m)
	if err != nil {
		return err
	}
	_, err = c.mutate(ctx, http.MethodPut, RouteModelItem, ItemPath(RouteModelItem, id), RouteModelList, body)
	return err
}

// DeleteModel deletes a prompt model
func (c *Client) DeleteModel(ctx context.Context, id string) error {
	if err := requireID("model", id); err != nil {
		return err
	}
	_, err := c.mutate(ctx, http.MethodDelete, RouteModelItem, ItemPath(RouteModelItem, id), RouteModelList, nil)
	return err
}

// GetModule fetches a module with its outline. A module whose outline has
// not been generated yet yields schema.ErrEmptyData.
func (c *Client) GetModule(ctx context.Context, id string) (*schema.Module, error) {
	if err := requireID("module", id); err != nil {
		return nil, err
	}
	body, err := c.Do(ctx, http.MethodGet, RouteModuleItem, ItemPath(RouteModuleItem, id), nil)
	if err != nil {
		return nil, err
	}
	data, err := schema.DataOf(body)
	if err != nil {
		return nil, err
	}
	return schema.DecodeModule(data)
}

// UpdateModule saves an edited module outline
func (c *Client) UpdateModule(ctx context.Context, m schema.Module) error {
	if err := requireID("module", m.ID); err != nil {
		return err
	}
	body, err := schema.EncodeModule(m)
	if err != nil {
		return err
	}
	_, err = c.mutate(ctx, http.MethodPut, RouteModuleItem, ItemPath(RouteModuleItem, m.ID), RouteModuleList, body)
	return err
}

// GetEbook fetches the ebook of a module. The backend addresses ebooks by
// module id, the same path the generation watcher reads.
func (c *Client) GetEbook(ctx context.Context, moduleID string) (*schema.Ebook, error) {
	if err := requireID("module", moduleID); err != nil {
		return nil, err
	}
	body, err := c.Do(ctx, http.MethodGet, RouteEbookItem, ItemPath(RouteEbookItem, moduleID), nil)
	if err != nil {
		return nil, err
	}
	data, err := schema.DataOf(body)
	if err != nil {
		return nil, err
	}
	return schema.DecodeEbook(data)
}

// UpdateEbook saves edited ebook content to the path GetEbook reads. An
// ebook without a module id falls back to its own id.
func (c *Client) UpdateEbook(ctx context.Context, e schema.Ebook) error {
	key := e.ModuleID
	if key == "" {
		key = e.ID
	}
	if err := requireID("module", key); err != nil {
		return err
	}
	body, err := schema.EncodeEbook(e)
	if err != nil {
		return err
	}
	_, err = c.mutate(ctx, http.MethodPut, RouteEbookItem, ItemPath(RouteEbookItem, key), RouteEbookList, body)
	return err
}
