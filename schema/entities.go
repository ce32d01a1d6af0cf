package schema

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/Nexora-Open-Source/smartedu/outline"
)

// User is the authenticated account
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type userWire struct {
	ID    ID     `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Session is the login response: an auth token and the user it belongs to
type Session struct {
	Token string
	User  User
}

type loginWire struct {
	Token       string    `json:"token"`
	AccessToken string    `json:"access_token"`
	User        *userWire `json:"user"`
}

// DecodeLogin decodes a login response body. The backend returns the token
// either at the top level or inside data.
func DecodeLogin(body []byte) (*Session, error) {
	var w loginWire
	if data, err := DataOf(body); err == nil {
		if err := decodeStrict(data, &w); err != nil {
			return nil, err
		}
	} else if err := decodeStrict(body, &w); err != nil {
		return nil, err
	}
	token := w.Token
	if token == "" {
		token = w.AccessToken
	}
	if token == "" {
		return nil, missing("login response", "token")
	}
	s := &Session{Token: token}
	if w.User != nil {
		s.User = User{ID: w.User.ID.String(), Name: w.User.Name, Email: w.User.Email, Role: w.User.Role}
	}
	return s, nil
}

// Credentials is the login/register request
type Credentials struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// MateriPokok is a job-role profile that outlines are generated from
type MateriPokok struct {
	ID           string
	JobRole      string
	Description  string
	Competencies []string
	Level        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type materiPokokWire struct {
	ID           ID         `json:"id,omitempty"`
	JobRole      string     `json:"job_role"`
	Description  string     `json:"description"`
	Competencies []string   `json:"competencies"`
	Level        string     `json:"level,omitempty"`
	CreatedAt    *Timestamp `json:"created_at,omitempty"`
	UpdatedAt    *Timestamp `json:"updated_at,omitempty"`
}

func (w materiPokokWire) domain() MateriPokok {
	return MateriPokok{
		ID:           w.ID.String(),
		JobRole:      w.JobRole,
		Description:  w.Description,
		Competencies: w.Competencies,
		Level:        w.Level,
		CreatedAt:    w.CreatedAt.Time(),
		UpdatedAt:    w.UpdatedAt.Time(),
	}
}

func (w materiPokokWire) validate() error {
	var fields []string
	if w.ID == "" {
		fields = append(fields, "id")
	}
	if strings.TrimSpace(w.JobRole) == "" {
		fields = append(fields, "job_role")
	}
	if len(fields) > 0 {
		return missing("materi pokok", fields...)
	}
	return nil
}

// DecodeMateriPokok decodes one materi pokok from an envelope's data
func DecodeMateriPokok(raw json.RawMessage) (*MateriPokok, error) {
	var w materiPokokWire
	if err := decodeStrict(raw, &w); err != nil {
		return nil, err
	}
	if err := w.validate(); err != nil {
		return nil, err
	}
	m := w.domain()
	return &m, nil
}

// DecodeMateriPokokList decodes a list of materi pokok. An empty list is not an error.
func DecodeMateriPokokList(raw json.RawMessage) ([]MateriPokok, error) {
	var ws []materiPokokWire
	if isEmptyJSON(raw) {
		return []MateriPokok{}, nil
	}
	if err := json.Unmarshal(raw, &ws); err != nil {
		return nil, err
	}
	out := make([]MateriPokok, 0, len(ws))
	for _, w := range ws {
		if err := w.validate(); err != nil {
			return nil, err
		}
		out = append(out, w.domain())
	}
	return out, nil
}

// EncodeMateriPokok produces the create/update request body
func EncodeMateriPokok(m MateriPokok) ([]byte, error) {
	competencies := m.Competencies
	if competencies == nil {
		competencies = []string{}
	}
	return json.Marshal(materiPokokWire{
		JobRole:      m.JobRole,
		Description:  m.Description,
		Competencies: competencies,
		Level:        m.Level,
	})
}

// PromptModel is a prompt template ("model") selecting how content is generated
type PromptModel struct {
	ID             string
	Name           string
	PromptTemplate string
	Description    string
	CreatedAt      time.Time
}

type promptModelWire struct {
	ID             ID         `json:"id,omitempty"`
	Name           string     `json:"name"`
	PromptTemplate string     `json:"prompt_template"`
	Description    string     `json:"description,omitempty"`
	CreatedAt      *Timestamp `json:"created_at,omitempty"`
}

func (w promptModelWire) domain() PromptModel {
	return PromptModel{
		ID:             w.ID.String(),
		Name:           w.Name,
		PromptTemplate: w.PromptTemplate,
		Description:    w.Description,
		CreatedAt:      w.CreatedAt.Time(),
	}
}

func (w promptModelWire) validate() error {
	var fields []string
	if w.ID == "" {
		fields = append(fields, "id")
	}
	if strings.TrimSpace(w.Name) == "" {
		fields = append(fields, "name")
	}
	if len(fields) > 0 {
		return missing("model", fields...)
	}
	return nil
}

// DecodePromptModel decodes one prompt model
func DecodePromptModel(raw json.RawMessage) (*PromptModel, error) {
	var w promptModelWire
	if err := decodeStrict(raw, &w); err != nil {
		return nil, err
	}
	if err := w.validate(); err != nil {
		return nil, err
	}
	m := w.domain()
	return &m, nil
}

// DecodePromptModelList decodes a list of prompt models
func DecodePromptModelList(raw json.RawMessage) ([]PromptModel, error) {
	var ws []promptModelWire
	if isEmptyJSON(raw) {
		return []PromptModel{}, nil
	}
	if err := json.Unmarshal(raw, &ws); err != nil {
		return nil, err
	}
	out := make([]PromptModel, 0, len(ws))
	for _, w := range ws {
		if err := w.validate(); err != nil {
			return nil, err
		}
		out = append(out, w.domain())
	}
	return out, nil
}

// EncodePromptModel produces the create/update request body
func EncodePromptModel(m PromptModel) ([]byte, error) {
	return json.Marshal(promptModelWire{
		Name:           m.Name,
		PromptTemplate: m.PromptTemplate,
		Description:    m.Description,
	})
}

// Module is a generated course module: the outline for one materi pokok
type Module struct {
	ID            string
	MateriPokokID string
	Title         string
	Model         string
	Outline       outline.Tree
	UpdatedAt     time.Time
}

type topicWire struct {
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	SubTopics   []topicWire `json:"sub_topics,omitempty"`
}

type moduleWire struct {
	ID            ID          `json:"id,omitempty"`
	MateriPokokID ID          `json:"materi_pokok_id,omitempty"`
	Title         string      `json:"title"`
	Model         string      `json:"model,omitempty"`
	Outline       []topicWire `json:"outline"`
	UpdatedAt     *Timestamp  `json:"updated_at,omitempty"`
}

func topicsToNodes(ts []topicWire) []outline.Node {
	if len(ts) == 0 {
		return nil
	}
	nodes := make([]outline.Node, len(ts))
	for i, t := range ts {
		nodes[i] = outline.Node{
			Title:       t.Title,
			Description: t.Description,
			Children:    topicsToNodes(t.SubTopics),
		}
	}
	return nodes
}

func nodesToTopics(ns []outline.Node) []topicWire {
	if len(ns) == 0 {
		return nil
	}
	topics := make([]topicWire, len(ns))
	for i, n := range ns {
		topics[i] = topicWire{
			Title:       n.Title,
			Description: n.Description,
			SubTopics:   nodesToTopics(n.Children),
		}
	}
	return topics
}

// DecodeModule decodes a module. A module whose outline is still empty has
// not been generated yet and yields ErrEmptyData.
func DecodeModule(raw json.RawMessage) (*Module, error) {
	var w moduleWire
	if err := decodeStrict(raw, &w); err != nil {
		return nil, err
	}
	if w.ID == "" {
		return nil, missing("module", "id")
	}
	if len(w.Outline) == 0 {
		return nil, ErrEmptyData
	}
	return &Module{
		ID:            w.ID.String(),
		MateriPokokID: w.MateriPokokID.String(),
		Title:         w.Title,
		Model:         w.Model,
		Outline:       outline.New(topicsToNodes(w.Outline)...),
		UpdatedAt:     w.UpdatedAt.Time(),
	}, nil
}

// EncodeModule produces the update request body for an edited module
func EncodeModule(m Module) ([]byte, error) {
	topics := nodesToTopics(m.Outline.Nodes())
	if topics == nil {
		topics = []topicWire{}
	}
	return json.Marshal(moduleWire{
		MateriPokokID: ID(m.MateriPokokID),
		Title:         m.Title,
		Model:         m.Model,
		Outline:       topics,
	})
}

// Ebook is the rich-text book generated from a module
type Ebook struct {
	ID          string
	ModuleID    string
	Title       string
	ContentHTML string
	UpdatedAt   time.Time
}

type ebookWire struct {
	ID        ID         `json:"id,omitempty"`
	ModuleID  ID         `json:"module_id,omitempty"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	UpdatedAt *Timestamp `json:"updated_at,omitempty"`
}

// DecodeEbook decodes an ebook. Empty content means generation has not
// produced anything yet and yields ErrEmptyData.
func DecodeEbook(raw json.RawMessage) (*Ebook, error) {
	var w ebookWire
	if err := decodeStrict(raw, &w); err != nil {
		return nil, err
	}
	if w.ID == "" {
		return nil, missing("ebook", "id")
	}
	if strings.TrimSpace(w.Content) == "" {
		return nil, ErrEmptyData
	}
	return &Ebook{
		ID:          w.ID.String(),
		ModuleID:    w.ModuleID.String(),
		Title:       w.Title,
		ContentHTML: w.Content,
		UpdatedAt:   w.UpdatedAt.Time(),
	}, nil
}

// EncodeEbook produces the update request body for an edited ebook
func EncodeEbook(e Ebook) ([]byte, error) {
	return json.Marshal(ebookWire{
		ModuleID: ID(e.ModuleID),
		Title:    e.Title,
		Content:  e.ContentHTML,
	})
}

// TriggerRequest starts generation for the given entity ids. The backend
// expects capitalised member names.
type TriggerRequest struct {
	IDs   []string `json:"Id"`
	Model string   `json:"Model"`
}
