package store

import (
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("not found")
	ErrExists   = errors.New("already exists")
)

// Sequence is the persisted state of a named ID sequence. Position is the
// next position to be issued.
type Sequence struct {
	Name      string    `json:"name"`
	Alphabet  string    `json:"alphabet"`
	Prefix    string    `json:"prefix"`
	Position  int64     `json:"position"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IssueEvent records one batch of IDs handed out.
type IssueEvent struct {
	Name     string
	First    string
	Last     string
	Count    int
	Position int64
	Ts       time.Time
}

type Stats struct {
	Name        string `json:"name"`
	Position    int64  `json:"position"`
	TotalIssued int64  `json:"totalIssued"`
	Batches     int64  `json:"batches"`
	LastIssue   string `json:"lastIssue,omitempty"`
}

type Store interface {
	Create(seq Sequence) error
	Get(name string) (Sequence, error)
	SavePosition(name string, position int64) error
	List(n int) ([]Sequence, error)
	InsertIssue(ev IssueEvent) error
	Stats(name string) (Stats, error)
}
